package server

import (
	"context"
	"fmt"
	"time"

	"github.com/ZaguanLabs/newslate"
	"github.com/ZaguanLabs/newslate/cache"
	"github.com/ZaguanLabs/newslate/logging"
	"github.com/ZaguanLabs/newslate/news"
	"github.com/ZaguanLabs/newslate/prefs"
	"github.com/ZaguanLabs/newslate/provider"
	"github.com/redis/go-redis/v9"
)

// Redis key prefixes for the caches sharing one Redis database.
const (
	redisNewsListPrefix    = "newslate:news:list:"
	redisNewsArticlePrefix = "newslate:news:article:"
)

// maxSessions bounds in-memory session preferences when Redis is not used.
const maxSessions = 10000

// Build wires the server from cfg. The returned func releases external
// connections.
func Build(cfg Config) (*Server, func(), error) {
	logger := logging.Setup(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	p, name := buildProvider(cfg)
	translatorLogger := logging.NewLogger("translator")

	deps := Deps{
		ProviderName: name,
		Logger:       logging.NewLogger("http"),
	}
	cleanup := func() {}

	var translations newslate.TranslationCache
	newsCfg := news.Config{
		TheNewsAPIKey: cfg.TheNewsAPIKey,
		NewsDataKey:   cfg.NewsDataKey,
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}

		rc := cache.NewRedisCacheFromClient(client, cfg.CacheTTL, "")
		translations = rc
		deps.Cache = rc
		deps.Sessions = func(session string) newslate.PreferenceStore {
			return prefs.NewRedisStore(client, session, cfg.SessionTTL)
		}
		newsCfg.ListCache = cache.NewRedisCacheFromClient(client, news.ListCacheTTL, redisNewsListPrefix)
		newsCfg.ArticleCache = cache.NewRedisCacheFromClient(client, news.ArticleCacheTTL, redisNewsArticlePrefix)
		cleanup = func() { _ = client.Close() }
		logger.Info().Msg("using redis for caches and sessions")
	} else {
		translations = cache.NewMemoryCache(cache.MemoryConfig{Name: cache.DefaultName, TTL: cfg.CacheTTL, MaxEntries: cfg.CacheSize})
		sessions := cache.NewMemoryCache(cache.MemoryConfig{Name: "sessions", TTL: cfg.SessionTTL, MaxEntries: maxSessions})
		deps.Sessions = func(session string) newslate.PreferenceStore {
			return prefs.NewCacheStore(sessions, session)
		}
	}

	deps.Translator = newslate.NewTranslator(p,
		newslate.WithCache(translations),
		newslate.WithCacheNamespace(name),
		newslate.WithLogger(translatorLogger),
	)

	if cfg.TheNewsAPIKey != "" || cfg.NewsDataKey != "" {
		client, err := news.New(newsCfg)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.News = client
		logger.Info().Str("backend", string(client.Backend())).Msg("news proxy enabled")
	} else {
		logger.Warn().Msg("no news API key set, news endpoints disabled")
	}

	logger.Info().
		Str("provider", name).
		Dur("cache_ttl", cfg.CacheTTL).
		Int("cache_size", cfg.CacheSize).
		Msg("translation configured")

	return New(cfg, deps), cleanup, nil
}

// buildProvider returns the configured provider behind rate limiting, retry
// and a circuit breaker, plus its name for cache namespacing.
func buildProvider(cfg Config) (newslate.Provider, string) {
	var p newslate.Provider
	name := cfg.Provider

	switch cfg.Provider {
	case ProviderOpenAI:
		p = provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
		})
	default:
		name = ProviderLibre
		p = provider.NewLibreTranslateProvider(provider.LibreTranslateConfig{
			URL:    cfg.LibreTranslateURL,
			APIKey: cfg.LibreTranslateAPIKey,
		})
	}

	if cfg.RequestsPerMinute > 0 {
		p = newslate.NewRateLimitedProvider(p, newslate.RateLimitConfig{RequestsPerMinute: cfg.RequestsPerMinute})
	}
	p = newslate.NewRetryableProvider(p, newslate.DefaultRetryConfig())
	p = newslate.NewCircuitBreakerProvider(p, newslate.CircuitBreakerConfig{})

	return p, name
}
