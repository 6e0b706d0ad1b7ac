package newslate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZaguanLabs/newslate"
	"github.com/ZaguanLabs/newslate/cache"
	"github.com/ZaguanLabs/newslate/news"
	"github.com/ZaguanLabs/newslate/prefs"
	"github.com/ZaguanLabs/newslate/processor"
	"github.com/ZaguanLabs/newslate/provider"
	"github.com/go-redis/redismock/v9"
)

// Integration tests using all real components

func TestIntegration_FeedInReaderLanguage(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"meta": {"found": 2},
			"data": [
				{"uuid": "1", "title": "Hola", "description": "<p>Mundo</p>", "snippet": "Texto", "language": "es", "categories": ["world"]},
				{"uuid": "2", "title": "Morning", "description": "Brief", "snippet": "News", "language": "en", "categories": []}
			]
		}`))
	}))
	defer upstream.Close()

	feed, err := news.New(news.Config{TheNewsAPIKey: "key", TheNewsAPIURL: upstream.URL})
	if err != nil {
		t.Fatalf("news.New failed: %v", err)
	}

	ctx := context.Background()
	lang := newslate.NewLanguageResolver(ctx,
		newslate.WithChoiceStore(prefs.NewFileStore(filepath.Join(t.TempDir(), "prefs.json"))),
		newslate.WithEnvironmentLanguage("en"),
	)

	p := provider.NewMockProvider()
	translator := newslate.NewTranslator(p,
		newslate.WithCache(cache.NewMemoryCache(cache.DefaultMemoryConfig())),
		newslate.WithLanguage(lang),
	)

	resp, err := feed.FetchNews(ctx, news.Query{})
	if err != nil {
		t.Fatalf("FetchNews failed: %v", err)
	}

	results := translator.TranslateArticles(ctx, resp.Articles)
	es, en := results[0], results[1]

	if es.Err != nil || es.Article.Title != "Hello" || es.Article.Description != "World" || es.Article.Content != "Text" {
		t.Errorf("unexpected translation %+v (%v)", es.Article, es.Err)
	}
	if en.Article.IsTranslated || en.Article.Title != "Morning" {
		t.Errorf("english article should be untouched, got %+v", en.Article)
	}
	if p.CallCount() != 3 {
		t.Errorf("Expected 3 provider calls, got %d", p.CallCount())
	}

	// Switching language re-translates on request, served by the provider again
	lang.SetLanguage(ctx, "ko")
	again := translator.TranslateArticles(ctx, resp.Articles)
	if again[1].Article.Title != "[ko] Morning" {
		t.Errorf("Expected korean translation, got %q", again[1].Article.Title)
	}

	// Back to english: everything comes from the cache
	lang.SetLanguage(ctx, "en")
	calls := p.CallCount()
	translator.TranslateArticles(ctx, resp.Articles)
	if p.CallCount() != calls {
		t.Errorf("Expected cache hits, provider called %d more times", p.CallCount()-calls)
	}
}

func TestIntegration_ResilientProviderStack(t *testing.T) {
	p := provider.NewMockProvider()
	p.FailOn("Texto", &newslate.ProviderError{Message: "unsupported", StatusCode: 400})

	stack := newslate.NewCircuitBreakerProvider(
		newslate.NewRetryableProvider(
			newslate.NewRateLimitedProvider(p, newslate.RateLimitConfig{RequestsPerMinute: 6000}),
			newslate.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		),
		newslate.CircuitBreakerConfig{MaxFailures: 1},
	)
	translator := newslate.NewTranslator(stack, newslate.WithLanguage(newslate.StaticLanguage("en")))

	article := newslate.Article{ID: "a", Title: "Hola", Description: "Mundo", Content: "Texto", Language: "es"}
	got, err := translator.TranslateArticle(context.Background(), article)

	if err == nil {
		t.Fatal("Expected a partial failure")
	}
	if got.Title != "Hello" || got.Content != "Texto" {
		t.Errorf("unexpected article %+v", got)
	}
	// Client errors are neither retried nor trip the breaker
	if p.CallCount() != 3 {
		t.Errorf("Expected 3 provider calls, got %d", p.CallCount())
	}
	if stack.State() != "closed" {
		t.Errorf("breaker should stay closed, got %s", stack.State())
	}
}

func TestIntegration_RedisBackedCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rc := cache.NewRedisCacheFromClient(db, time.Hour, "")

	key := rc.RedisKey(newslate.CacheKey("es", "en", "Hola"))
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, "Hello", time.Hour).SetVal("OK")
	mock.ExpectGet(key).SetVal("Hello")

	p := provider.NewMockProvider()
	translator := newslate.NewTranslator(p, newslate.WithCache(rc), newslate.WithLanguage(newslate.StaticLanguage("en")))

	article := newslate.Article{ID: "a", Title: "Hola", Language: "es"}
	for i := 0; i < 2; i++ {
		got, err := translator.TranslateArticle(context.Background(), article)
		if err != nil || got.Title != "Hello" {
			t.Fatalf("run %d: got %+v, %v", i, got, err)
		}
	}

	if p.CallCount() != 1 {
		t.Errorf("second run should come from redis, provider called %d times", p.CallCount())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestIntegration_HTMLToTranslation(t *testing.T) {
	proc := processor.NewHTMLProcessor()
	text, err := proc.PlainText(`<p>Hola <b>Mundo</b></p><script>track()</script>`)
	if err != nil {
		t.Fatalf("PlainText failed: %v", err)
	}

	p := provider.NewMockProvider()
	translator := newslate.NewTranslator(p, newslate.WithLanguage(newslate.StaticLanguage("en")))

	got, err := translator.TranslateText(context.Background(), text, "es")
	if err != nil {
		t.Fatalf("TranslateText failed: %v", err)
	}
	if got != "Hello World" {
		t.Errorf("TranslateText() = %q", got)
	}
}

func TestIntegration_CacheSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	article := newslate.Article{ID: "a", Title: "Hola", Description: "Mundo", Language: "es"}

	first := cache.NewMemoryCache(cache.DefaultMemoryConfig())
	p := provider.NewMockProvider()
	newslate.NewTranslator(p, newslate.WithCache(first)).TranslateArticle(context.Background(), article)

	if err := cache.NewExporter(first).ExportToFile(path, nil); err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}

	second := cache.NewMemoryCache(cache.DefaultMemoryConfig())
	if _, err := cache.NewImporter(second).ImportFromFile(path); err != nil {
		t.Fatalf("ImportFromFile failed: %v", err)
	}

	p.Reset()
	got, _ := newslate.NewTranslator(p, newslate.WithCache(second)).TranslateArticle(context.Background(), article)
	if got.Title != "Hello" || p.CallCount() != 0 {
		t.Errorf("Expected cached translation without provider calls, got %q after %d calls", got.Title, p.CallCount())
	}
}
