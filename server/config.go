package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ZaguanLabs/newslate/cache"
	"github.com/ZaguanLabs/newslate/logging"
)

// Translation providers selectable with TRANSLATION_PROVIDER.
const (
	ProviderLibre  = "libre"
	ProviderOpenAI = "openai"
)

// Config holds the server configuration.
type Config struct {
	Addr string

	RedisURL string

	TheNewsAPIKey string
	NewsDataKey   string

	Provider             string
	LibreTranslateURL    string
	LibreTranslateAPIKey string
	OpenAIAPIKey         string
	OpenAIModel          string
	RequestsPerMinute    int

	CacheTTL   time.Duration
	CacheSize  int
	SessionTTL time.Duration

	RequestTimeout time.Duration
	CORSOrigins    []string

	LogLevel  logging.LogLevel
	LogPretty bool
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Addr:              ":5000",
		Provider:          ProviderLibre,
		OpenAIModel:       "gpt-4o-mini",
		RequestsPerMinute: 120,
		CacheTTL:          cache.DefaultTTL,
		CacheSize:         cache.DefaultMaxEntries,
		SessionTTL:        30 * 24 * time.Hour,
		RequestTimeout:    30 * time.Second,
		CORSOrigins:       []string{"*"},
		LogLevel:          logging.LevelInfo,
	}
}

// ConfigFromEnv reads the configuration from environment variables on top
// of DefaultConfig.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if port := os.Getenv("PORT"); port != "" {
		if strings.Contains(port, ":") {
			cfg.Addr = port
		} else {
			cfg.Addr = ":" + port
		}
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.TheNewsAPIKey = os.Getenv("THE_NEWS_API_KEY")
	cfg.NewsDataKey = os.Getenv("NEWSDATA_IO_KEY")
	cfg.LibreTranslateURL = os.Getenv("LIBRE_TRANSLATE_URL")
	cfg.LibreTranslateAPIKey = os.Getenv("LIBRE_TRANSLATE_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")

	if v := os.Getenv("TRANSLATION_PROVIDER"); v != "" {
		cfg.Provider = strings.ToLower(v)
	}
	switch cfg.Provider {
	case ProviderLibre, ProviderOpenAI:
	default:
		return cfg, fmt.Errorf("TRANSLATION_PROVIDER: unknown provider %q", cfg.Provider)
	}
	if cfg.Provider == ProviderOpenAI && cfg.OpenAIAPIKey == "" {
		return cfg, fmt.Errorf("TRANSLATION_PROVIDER=openai requires OPENAI_API_KEY")
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAIModel = v
	}

	var err error
	if cfg.RequestsPerMinute, err = envInt("TRANSLATION_RPM", cfg.RequestsPerMinute); err != nil {
		return cfg, err
	}
	if cfg.CacheTTL, err = envDuration("TRANSLATION_CACHE_TTL", cfg.CacheTTL); err != nil {
		return cfg, err
	}
	if cfg.CacheSize, err = envInt("TRANSLATION_CACHE_SIZE", cfg.CacheSize); err != nil {
		return cfg, err
	}
	if cfg.SessionTTL, err = envDuration("SESSION_TTL", cfg.SessionTTL); err != nil {
		return cfg, err
	}
	if cfg.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return cfg, err
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = logging.LogLevel(v)
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		if cfg.LogPretty, err = strconv.ParseBool(v); err != nil {
			return cfg, fmt.Errorf("LOG_PRETTY: %w", err)
		}
	}

	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return n, nil
}

// envDuration accepts Go durations ("90s", "1h") or plain seconds.
func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
