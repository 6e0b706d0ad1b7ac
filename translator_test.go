package newslate

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ZaguanLabs/newslate/cache"
)

func spanishArticle() Article {
	return Article{
		ID:          "art-1",
		Title:       "Hola",
		Description: "Mundo",
		Content:     "Texto",
		URL:         "https://example.com/hola",
		PublishedAt: "2026-01-01T10:00:00Z",
		Source:      Source{Name: "El Diario", URL: "https://example.com"},
		Category:    "general",
		Language:    "es",
	}
}

var spanishToEnglish = map[string]string{
	"Hola":  "Hello",
	"Mundo": "World",
	"Texto": "Text",
}

func TestTranslator_ConcreteScenario(t *testing.T) {
	provider := dictProvider(spanishToEnglish)
	c := newMapCache()
	tr := NewTranslator(provider, WithCache(c), WithLanguage(StaticLanguage("en")))

	got, err := tr.TranslateArticle(context.Background(), spanishArticle())
	if err != nil {
		t.Fatalf("TranslateArticle failed: %v", err)
	}

	want := spanishArticle()
	want.Title, want.Description, want.Content = "Hello", "World", "Text"
	want.IsTranslated = true
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TranslateArticle() = %+v, want %+v", got, want)
	}

	if c.Len() != 3 {
		t.Errorf("Expected 3 cache entries, got %d", c.Len())
	}
	for text, translated := range spanishToEnglish {
		if v, ok := c.Get(CacheKey("es", "en", text)); !ok || v != translated {
			t.Errorf("cache[%q] = %q, %v, want %q", CacheKey("es", "en", text), v, ok, translated)
		}
	}

	for _, req := range provider.Requests() {
		if req.SourceLang != "es" || req.TargetLang != "en" {
			t.Errorf("unexpected request languages %+v", req)
		}
	}
}

func TestTranslator_DoesNotMutateInput(t *testing.T) {
	tr := NewTranslator(dictProvider(spanishToEnglish), WithLanguage(StaticLanguage("en")))

	in := spanishArticle()
	if _, err := tr.TranslateArticle(context.Background(), in); err != nil {
		t.Fatalf("TranslateArticle failed: %v", err)
	}
	if !reflect.DeepEqual(in, spanishArticle()) {
		t.Errorf("input article was mutated: %+v", in)
	}
}

func TestTranslator_ShortCircuitTranslated(t *testing.T) {
	provider := &stubProvider{}
	c := newMapCache()
	tr := NewTranslator(provider, WithCache(c), WithLanguage(StaticLanguage("en")))

	in := spanishArticle()
	in.IsTranslated = true

	got, err := tr.TranslateArticle(context.Background(), in)
	if err != nil {
		t.Fatalf("TranslateArticle failed: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Errorf("translated article should be returned unchanged, got %+v", got)
	}
	if provider.Calls() != 0 {
		t.Errorf("Expected 0 provider calls, got %d", provider.Calls())
	}
	if c.Len() != 0 {
		t.Errorf("Expected no cache traffic, got %d entries", c.Len())
	}
}

func TestTranslator_SameLanguageNoop(t *testing.T) {
	tests := []struct {
		name    string
		article string
		reader  string
	}{
		{"exact", "es", "es"},
		{"locale vs code", "es-MX", "es"},
		{"name vs code", "Korean", "ko-KR"},
		{"missing article language is english", "", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{}
			tr := NewTranslator(provider, WithLanguage(StaticLanguage(tt.reader)))

			in := spanishArticle()
			in.Language = tt.article

			got, err := tr.TranslateArticle(context.Background(), in)
			if err != nil {
				t.Fatalf("TranslateArticle failed: %v", err)
			}
			if !reflect.DeepEqual(got, in) {
				t.Errorf("article should be returned unchanged, got %+v", got)
			}
			if provider.Calls() != 0 {
				t.Errorf("Expected 0 provider calls, got %d", provider.Calls())
			}
		})
	}
}

func TestTranslator_CacheHitAvoidsNetwork(t *testing.T) {
	provider := dictProvider(spanishToEnglish)
	tr := NewTranslator(provider,
		WithCache(cache.NewMemoryCache(cache.DefaultMemoryConfig())),
		WithLanguage(StaticLanguage("en")),
	)

	first, err := tr.TranslateArticle(context.Background(), spanishArticle())
	if err != nil {
		t.Fatalf("first TranslateArticle failed: %v", err)
	}
	second, err := tr.TranslateArticle(context.Background(), spanishArticle())
	if err != nil {
		t.Fatalf("second TranslateArticle failed: %v", err)
	}

	if provider.Calls() > 3 {
		t.Errorf("Expected at most 3 provider calls across both runs, got %d", provider.Calls())
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}
}

func TestTranslator_TTLExpiryRefetches(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	provider := dictProvider(spanishToEnglish)
	c := cache.NewMemoryCache(cache.MemoryConfig{
		TTL:        cache.DefaultTTL,
		MaxEntries: cache.DefaultMaxEntries,
		Now:        clock,
	})
	tr := NewTranslator(provider, WithCache(c), WithLanguage(StaticLanguage("en")))

	tr.TranslateArticle(context.Background(), spanishArticle())
	if provider.Calls() != 3 {
		t.Fatalf("Expected 3 calls after first run, got %d", provider.Calls())
	}

	mu.Lock()
	now = now.Add(cache.DefaultTTL + time.Second)
	mu.Unlock()

	tr.TranslateArticle(context.Background(), spanishArticle())
	if provider.Calls() != 6 {
		t.Errorf("Expired entries should be refetched, got %d calls", provider.Calls())
	}
}

func TestTranslator_PartialFailureIsolation(t *testing.T) {
	provider := dictProvider(map[string]string{
		"Hola":  "Hello",
		"Texto": "Text",
	})
	c := newMapCache()
	tr := NewTranslator(provider, WithCache(c), WithLanguage(StaticLanguage("en")))

	got, err := tr.TranslateArticle(context.Background(), spanishArticle())

	if got.Title != "Hello" || got.Content != "Text" {
		t.Errorf("successful fields should be translated, got %+v", got)
	}
	if got.Description != "Mundo" {
		t.Errorf("failed field should keep its original text, got %q", got.Description)
	}
	if !got.IsTranslated {
		t.Error("article should be marked translated")
	}

	var artErr *ArticleError
	if !errors.As(err, &artErr) {
		t.Fatalf("Expected *ArticleError, got %v", err)
	}
	if artErr.ArticleID != "art-1" || len(artErr.Fields) != 1 || !artErr.Failed(FieldDescription) {
		t.Errorf("unexpected ArticleError %+v", artErr)
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Error("ArticleError should expose the provider error")
	}

	if _, ok := c.Get(CacheKey("es", "en", "Mundo")); ok {
		t.Error("failed translations must not be cached")
	}
}

func TestTranslator_AllFieldsFail(t *testing.T) {
	provider := &stubProvider{fn: func(context.Context, TranslateRequest) (string, error) {
		return "", &ProviderError{Message: "service unavailable", StatusCode: 503, Retryable: true}
	}}
	tr := NewTranslator(provider, WithLanguage(StaticLanguage("en")))

	got, err := tr.TranslateArticle(context.Background(), spanishArticle())

	var artErr *ArticleError
	if !errors.As(err, &artErr) || len(artErr.Fields) != 3 {
		t.Fatalf("Expected all three fields to fail, got %v", err)
	}
	if got.Title != "Hola" || got.Description != "Mundo" || got.Content != "Texto" {
		t.Errorf("original text should be kept, got %+v", got)
	}
	if !got.IsTranslated {
		t.Error("article should still be marked translated")
	}
}

func TestTranslator_BlankFieldsSkipProvider(t *testing.T) {
	provider := dictProvider(spanishToEnglish)
	tr := NewTranslator(provider, WithLanguage(StaticLanguage("en")))

	in := spanishArticle()
	in.Description = ""
	in.Content = "   "

	got, err := tr.TranslateArticle(context.Background(), in)
	if err != nil {
		t.Fatalf("TranslateArticle failed: %v", err)
	}
	if got.Title != "Hello" || got.Description != "" || got.Content != "   " {
		t.Errorf("unexpected result %+v", got)
	}
	if provider.Calls() != 1 {
		t.Errorf("Expected 1 provider call, got %d", provider.Calls())
	}
}

func TestTranslator_FieldsRunConcurrently(t *testing.T) {
	delay := 50 * time.Millisecond
	provider := &stubProvider{fn: func(_ context.Context, req TranslateRequest) (string, error) {
		time.Sleep(delay)
		return strings.ToUpper(req.Text), nil
	}}
	tr := NewTranslator(provider, WithLanguage(StaticLanguage("en")))

	start := time.Now()
	if _, err := tr.TranslateArticle(context.Background(), spanishArticle()); err != nil {
		t.Fatalf("TranslateArticle failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*delay {
		t.Errorf("Expected concurrent field translation, took %v", elapsed)
	}
}

func TestTranslator_RequestTimeout(t *testing.T) {
	provider := &stubProvider{fn: func(ctx context.Context, req TranslateRequest) (string, error) {
		if req.Text == "Mundo" {
			<-ctx.Done()
			return "", &ProviderError{Message: "request cancelled", Cause: ctx.Err(), Retryable: true}
		}
		return spanishToEnglish[req.Text], nil
	}}
	tr := NewTranslator(provider,
		WithLanguage(StaticLanguage("en")),
		WithRequestTimeout(20*time.Millisecond),
	)

	got, err := tr.TranslateArticle(context.Background(), spanishArticle())

	var artErr *ArticleError
	if !errors.As(err, &artErr) || !artErr.Failed(FieldDescription) {
		t.Fatalf("Expected description to time out, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded in the chain, got %v", err)
	}
	if got.Title != "Hello" || got.Description != "Mundo" {
		t.Errorf("unexpected result %+v", got)
	}
}

func TestTranslator_CallerCancelledStillCaches(t *testing.T) {
	release := make(chan struct{})
	provider := &stubProvider{fn: func(_ context.Context, req TranslateRequest) (string, error) {
		<-release
		return spanishToEnglish[req.Text], nil
	}}
	c := newMapCache()
	tr := NewTranslator(provider, WithCache(c), WithLanguage(StaticLanguage("en")))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var got Article
	var err error
	go func() {
		got, err = tr.TranslateArticle(ctx, spanishArticle())
		close(done)
	}()

	if !waitFor(time.Second, func() bool { return provider.Calls() == 3 }) {
		t.Fatalf("Expected 3 in-flight calls, got %d", provider.Calls())
	}
	cancel()
	<-done

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if !reflect.DeepEqual(got, spanishArticle()) {
		t.Errorf("abandoned call should return the original article, got %+v", got)
	}

	close(release)
	if !waitFor(time.Second, func() bool { return c.Len() == 3 }) {
		t.Errorf("abandoned fields should still populate the cache, got %d entries", c.Len())
	}
}

func TestTranslator_FollowsLanguageChanges(t *testing.T) {
	provider := &stubProvider{}
	resolver := NewLanguageResolver(context.Background(), WithEnvironmentLanguage("ko"))
	tr := NewTranslator(provider, WithLanguage(resolver))

	got, _ := tr.TranslateArticle(context.Background(), spanishArticle())
	if got.Title != "[ko] Hola" {
		t.Errorf("Expected Korean target, got %q", got.Title)
	}

	resolver.SetLanguage(context.Background(), "ja")
	if tr.Language() != "ja" {
		t.Fatalf("Translator should follow the resolver, got %q", tr.Language())
	}

	got, _ = tr.TranslateArticle(context.Background(), spanishArticle())
	if got.Title != "[ja] Hola" {
		t.Errorf("Expected Japanese target, got %q", got.Title)
	}
}

func TestTranslator_CacheNamespace(t *testing.T) {
	c := newMapCache()
	tr := NewTranslator(dictProvider(spanishToEnglish),
		WithCache(c),
		WithLanguage(StaticLanguage("en")),
		WithCacheNamespace("libre"),
	)

	tr.TranslateArticle(context.Background(), spanishArticle())

	if _, ok := c.Get(CacheKeyExtended("libre", "es", "en", "Hola")); !ok {
		t.Error("Expected namespaced cache key")
	}
	if _, ok := c.Get(CacheKey("es", "en", "Hola")); ok {
		t.Error("Unnamespaced key should not be written")
	}
}

func TestTranslator_TranslateArticles(t *testing.T) {
	provider := &stubProvider{fn: func(_ context.Context, req TranslateRequest) (string, error) {
		if req.Text == "broken" {
			return "", &ProviderError{Message: "bad input", StatusCode: 400}
		}
		return strings.ToUpper(req.Text), nil
	}}
	tr := NewTranslator(provider, WithLanguage(StaticLanguage("en")), WithConcurrency(2))

	articles := []Article{
		{ID: "1", Title: "uno", Language: "es"},
		{ID: "2", Title: "two", Language: "en"},
		{ID: "3", Title: "broken", Language: "es"},
		{ID: "4", Title: "cuatro", Language: "es", IsTranslated: true},
		{ID: "5", Title: "cinco", Language: "es"},
	}

	results := tr.TranslateArticles(context.Background(), articles)
	if len(results) != len(articles) {
		t.Fatalf("Expected %d results, got %d", len(articles), len(results))
	}

	wantTitles := []string{"UNO", "two", "broken", "cuatro", "CINCO"}
	for i, r := range results {
		if r.Article.ID != articles[i].ID {
			t.Errorf("results[%d] out of order: %s", i, r.Article.ID)
		}
		if r.Article.Title != wantTitles[i] {
			t.Errorf("results[%d].Title = %q, want %q", i, r.Article.Title, wantTitles[i])
		}
	}

	if results[2].Err == nil {
		t.Error("Expected an error for the broken article")
	}
	for _, i := range []int{0, 1, 3, 4} {
		if results[i].Err != nil {
			t.Errorf("results[%d] unexpected error: %v", i, results[i].Err)
		}
	}
}

func TestTranslator_TranslateText(t *testing.T) {
	provider := dictProvider(map[string]string{"Good morning": "좋은 아침"})
	c := newMapCache()
	tr := NewTranslator(provider, WithCache(c), WithLanguage(StaticLanguage("ko")))

	got, err := tr.TranslateText(context.Background(), "Good morning", "")
	if err != nil {
		t.Fatalf("TranslateText failed: %v", err)
	}
	if got != "좋은 아침" {
		t.Errorf("TranslateText() = %q", got)
	}
	if _, ok := c.Get(AutoDetect + ":ko:Good morning"); !ok {
		t.Error("empty source should be cached under auto")
	}
	if req := provider.Requests()[0]; req.SourceLang != "" {
		t.Errorf("empty source should reach the provider empty, got %q", req.SourceLang)
	}

	// Same language returns the input without a call
	calls := provider.Calls()
	if got, _ := tr.TranslateText(context.Background(), "안녕", "ko-KR"); got != "안녕" {
		t.Errorf("same-language text should be unchanged, got %q", got)
	}
	if provider.Calls() != calls {
		t.Error("same-language text should not reach the provider")
	}
}

func TestTranslator_DetectsUnknownSource(t *testing.T) {
	provider := &stubProvider{}
	c := newMapCache()
	tr := NewTranslator(provider, WithCache(c), WithLanguage(StaticLanguage("en")))

	// An unknown source is never assumed to equal the target
	got, err := tr.TranslateText(context.Background(), "Hola", "")
	if err != nil || got != "[en] Hola" {
		t.Errorf("TranslateText() = %q, %v", got, err)
	}

	if _, err := tr.TranslateTextTo(context.Background(), "Bonjour", "auto", "ko"); err != nil {
		t.Fatalf("TranslateTextTo failed: %v", err)
	}
	reqs := provider.Requests()
	if len(reqs) != 2 {
		t.Fatalf("Expected 2 provider calls, got %d", len(reqs))
	}
	for _, req := range reqs {
		if req.SourceLang != "" {
			t.Errorf("source for %q = %q, want detection", req.Text, req.SourceLang)
		}
	}
	if reqs[1].TargetLang != "ko" {
		t.Errorf("target = %q, want ko", reqs[1].TargetLang)
	}
	if _, ok := c.Get(CacheKey("auto", "ko", "Bonjour")); !ok {
		t.Error("detected-source translation should be cached under auto")
	}

	results := tr.TranslateArticles(context.Background(), []Article{{ID: "x", Title: "Hola"}})
	if results[0].Article.Title != "[en] Hola" || !results[0].Article.IsTranslated {
		t.Errorf("article without a language should be translated, got %+v", results[0].Article)
	}
}

func TestTranslator_ExplicitTarget(t *testing.T) {
	provider := &stubProvider{}
	tr := NewTranslator(provider, WithLanguage(StaticLanguage("ko")))

	got, err := tr.TranslateTextTo(context.Background(), "Hello", "en", "ja_JP")
	if err != nil || got != "[ja] Hello" {
		t.Errorf("TranslateTextTo() = %q, %v", got, err)
	}

	results := tr.TranslateArticlesTo(context.Background(), []Article{{ID: "1", Title: "Hola", Language: "es"}}, "fr")
	if results[0].Article.Title != "[fr] Hola" {
		t.Errorf("TranslateArticlesTo() title = %q", results[0].Article.Title)
	}
}

func TestTranslator_TranslateTextFailure(t *testing.T) {
	tr := NewTranslator(dictProvider(nil), WithLanguage(StaticLanguage("ko")))

	got, err := tr.TranslateText(context.Background(), "Unknown", "en")
	if got != "Unknown" {
		t.Errorf("failure should return the original text, got %q", got)
	}

	var trErr *TranslationError
	if !errors.As(err, &trErr) {
		t.Fatalf("Expected *TranslationError, got %v", err)
	}
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Error("TranslationError should wrap the provider error")
	}
}

func TestTranslator_Defaults(t *testing.T) {
	tr := NewTranslator(&stubProvider{})

	if tr.Language() != DefaultLanguage {
		t.Errorf("default language = %q, want %q", tr.Language(), DefaultLanguage)
	}
	if tr.requestTimeout != 15*time.Second {
		t.Errorf("default request timeout = %v", tr.requestTimeout)
	}
	if tr.concurrency != 4 {
		t.Errorf("default concurrency = %d", tr.concurrency)
	}

	tr = NewTranslator(&stubProvider{}, WithConcurrency(0), WithRequestTimeout(0))
	if tr.concurrency != 4 {
		t.Error("non-positive concurrency should be ignored")
	}
	if tr.requestTimeout != 0 {
		t.Error("zero timeout should disable the per-request deadline")
	}
}
