package newslate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ZaguanLabs/newslate/logging"
	"github.com/rs/zerolog"
)

// Translator translates articles into the reader's language.
type Translator struct {
	provider       Provider
	cache          TranslationCache
	language       LanguageSource
	cacheNamespace string
	requestTimeout time.Duration
	concurrency    int
	logger         zerolog.Logger
}

// Provider is the interface for text translation backends.
type Provider interface {
	Translate(ctx context.Context, req TranslateRequest) (string, error)
}

// TranslateRequest contains the parameters for a single text translation.
type TranslateRequest struct {
	Text       string
	TargetLang string
	SourceLang string // Empty means the provider should detect it
}

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// LanguageSource reports the reader's current language.
type LanguageSource interface {
	Language() string
}

// StaticLanguage is a LanguageSource that never changes.
type StaticLanguage string

// Language returns the normalized code.
func (l StaticLanguage) Language() string {
	return NormalizeLanguage(string(l))
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithCache sets the translation cache.
func WithCache(cache TranslationCache) TranslatorOption {
	return func(t *Translator) {
		t.cache = cache
	}
}

// WithLanguage sets where the reader language comes from.
func WithLanguage(source LanguageSource) TranslatorOption {
	return func(t *Translator) {
		t.language = source
	}
}

// WithCacheNamespace prefixes every cache key, e.g. with the provider name.
func WithCacheNamespace(namespace string) TranslatorOption {
	return func(t *Translator) {
		t.cacheNamespace = namespace
	}
}

// WithRequestTimeout bounds each upstream translation call. Zero disables it.
func WithRequestTimeout(d time.Duration) TranslatorOption {
	return func(t *Translator) {
		t.requestTimeout = d
	}
}

// WithConcurrency sets how many articles TranslateArticles works on at once.
func WithConcurrency(n int) TranslatorOption {
	return func(t *Translator) {
		if n > 0 {
			t.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) TranslatorOption {
	return func(t *Translator) {
		t.logger = logger
	}
}

// NewTranslator creates a new Translator backed by provider.
func NewTranslator(provider Provider, opts ...TranslatorOption) *Translator {
	t := &Translator{
		provider:       provider,
		language:       StaticLanguage(DefaultLanguage),
		requestTimeout: 15 * time.Second,
		concurrency:    4,
		logger:         logging.NewLogger("translator"),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Language returns the language articles are currently translated into.
func (t *Translator) Language() string {
	return NormalizeLanguage(t.language.Language())
}

// TranslateArticle translates the title, description and content of article
// into the reader's current language.
//
// An article that is already translated, or already in the reader's
// language, is returned unchanged without touching the cache or provider.
// Otherwise the three fields are translated concurrently and the result is
// marked translated. A field whose translation fails keeps its original
// text; the failures are reported as an *ArticleError alongside the
// complete result.
func (t *Translator) TranslateArticle(ctx context.Context, article Article) (Article, error) {
	return t.TranslateArticleTo(ctx, article, t.Language())
}

// TranslateArticleTo is TranslateArticle with an explicit target language.
func (t *Translator) TranslateArticleTo(ctx context.Context, article Article, targetLang string) (Article, error) {
	target := NormalizeLanguage(targetLang)

	if article.IsTranslated || SourceLanguage(article.Language) == target {
		translationsTotal.WithLabelValues(outcomeSkipped).Inc()
		return article, nil
	}

	results, err := translateParallel(ctx, TranslatableFields, func(ctx context.Context, f Field) (string, error) {
		return t.resolve(ctx, article.Text(f), article.Language, target)
	})
	if err != nil {
		// Caller gave up; the upstream calls still complete and fill the cache.
		return article, err
	}

	translated := article
	var failures map[Field]error
	for i, f := range TranslatableFields {
		r := results[i]
		if r.err != nil {
			if failures == nil {
				failures = make(map[Field]error)
			}
			failures[f] = r.err
			t.logger.Warn().
				Err(r.err).
				Str("article_id", article.ID).
				Str("field", string(f)).
				Str("target", target).
				Msg("field translation failed, keeping original text")
			continue
		}
		translated = translated.WithText(f, r.value)
	}
	translated.IsTranslated = true

	if failures != nil {
		translationsTotal.WithLabelValues(outcomePartial).Inc()
		return translated, &ArticleError{ArticleID: article.ID, Fields: failures}
	}
	translationsTotal.WithLabelValues(outcomeTranslated).Inc()
	return translated, nil
}

// TranslateArticles translates a feed of articles, at most the configured
// concurrency at a time. Results are in input order.
func (t *Translator) TranslateArticles(ctx context.Context, articles []Article) []ArticleResult {
	return t.TranslateArticlesTo(ctx, articles, t.Language())
}

// TranslateArticlesTo is TranslateArticles with an explicit target language.
func (t *Translator) TranslateArticlesTo(ctx context.Context, articles []Article, target string) []ArticleResult {
	results := make([]ArticleResult, len(articles))

	sem := make(chan struct{}, t.concurrency)
	var wg sync.WaitGroup
	for i := range articles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			a, err := t.TranslateArticleTo(ctx, articles[i], target)
			results[i] = ArticleResult{Article: a, Err: err}
		}(i)
	}
	wg.Wait()

	return results
}

// TranslateText translates a single text from sourceLang into the reader's
// language. On failure it returns the original text and a *TranslationError.
func (t *Translator) TranslateText(ctx context.Context, text, sourceLang string) (string, error) {
	return t.TranslateTextTo(ctx, text, sourceLang, t.Language())
}

// TranslateTextTo is TranslateText with an explicit target language.
func (t *Translator) TranslateTextTo(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	target := NormalizeLanguage(targetLang)
	if SourceLanguage(sourceLang) == target {
		return text, nil
	}

	results, err := translateParallel(ctx, []string{text}, func(ctx context.Context, text string) (string, error) {
		return t.resolve(ctx, text, sourceLang, target)
	})
	if err != nil {
		return text, err
	}
	if results[0].err != nil {
		translationsTotal.WithLabelValues(outcomeFailed).Inc()
		return text, &TranslationError{Message: "translation failed", Cause: results[0].err}
	}
	return results[0].value, nil
}

// resolve returns the cached translation of text or fetches and caches it.
func (t *Translator) resolve(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	key := CacheKeyExtended(t.cacheNamespace, sourceLang, targetLang, text)
	if t.cache != nil {
		if cached, ok := t.cache.Get(key); ok {
			t.logger.Debug().Str("source", sourceLang).Str("target", targetLang).Msg("translation cache hit")
			return cached, nil
		}
	}

	callCtx := ctx
	if t.requestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.requestTimeout)
		defer cancel()
	}

	start := time.Now()
	translated, err := t.provider.Translate(callCtx, TranslateRequest{
		Text:       text,
		TargetLang: NormalizeLanguage(targetLang),
		SourceLang: SourceLanguage(sourceLang),
	})
	providerDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	if t.cache != nil {
		if err := t.cache.Set(key, translated); err != nil {
			t.logger.Warn().Err(err).Msg("failed to cache translation")
		}
	}
	return translated, nil
}
