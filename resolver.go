package newslate

import (
	"context"
	"sync"

	"github.com/ZaguanLabs/newslate/logging"
	"github.com/rs/zerolog"
)

// PreferenceStore persists a single language code.
type PreferenceStore interface {
	// Load returns the stored code. ok is false when nothing is stored.
	Load(ctx context.Context) (code string, ok bool, err error)
	Save(ctx context.Context, code string) error
}

// LanguageResolver owns the reader's active language.
//
// On construction it resolves, in order: the reader's persisted choice,
// the account preference, the environment default, and DefaultLanguage.
// Candidates that are not recognized language codes are skipped.
type LanguageResolver struct {
	mu          sync.RWMutex
	current     string
	source      string // which candidate the current value came from
	choice      PreferenceStore
	account     PreferenceStore
	environment func() (string, bool)
	subscribers map[int]func(old, new string)
	nextID      int
	logger      zerolog.Logger
}

// Resolution sources reported by LanguageResolver.Source.
const (
	SourceChoice      = "choice"
	SourceAccount     = "account"
	SourceEnvironment = "environment"
	SourceDefault     = "default"
)

// ResolverOption is a functional option for configuring the LanguageResolver.
type ResolverOption func(*LanguageResolver)

// WithChoiceStore sets where the reader's explicit choice is persisted.
func WithChoiceStore(store PreferenceStore) ResolverOption {
	return func(r *LanguageResolver) {
		r.choice = store
	}
}

// WithAccountStore sets the signed-in account's stored preference.
func WithAccountStore(store PreferenceStore) ResolverOption {
	return func(r *LanguageResolver) {
		r.account = store
	}
}

// WithEnvironment overrides how the environment default is detected.
// The default reads the process locale (see EnvironmentLanguage).
func WithEnvironment(detect func() (string, bool)) ResolverOption {
	return func(r *LanguageResolver) {
		r.environment = detect
	}
}

// WithEnvironmentLanguage uses a fixed environment default, e.g. one taken
// from an Accept-Language header.
func WithEnvironmentLanguage(code string) ResolverOption {
	return WithEnvironment(func() (string, bool) {
		return LookupLanguage(code)
	})
}

// WithResolverLogger sets the logger.
func WithResolverLogger(logger zerolog.Logger) ResolverOption {
	return func(r *LanguageResolver) {
		r.logger = logger
	}
}

// NewLanguageResolver creates a resolver and resolves the initial language.
func NewLanguageResolver(ctx context.Context, opts ...ResolverOption) *LanguageResolver {
	r := &LanguageResolver{
		environment: EnvironmentLanguage,
		subscribers: make(map[int]func(old, new string)),
		logger:      logging.NewLogger("language"),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.current, r.source = r.resolve(ctx)
	r.logger.Debug().Str("language", r.current).Str("source", r.source).Msg("resolved reader language")
	return r
}

func (r *LanguageResolver) resolve(ctx context.Context) (string, string) {
	if lang, ok := r.load(ctx, r.choice, SourceChoice); ok {
		return lang, SourceChoice
	}
	if lang, ok := r.load(ctx, r.account, SourceAccount); ok {
		return lang, SourceAccount
	}
	if r.environment != nil {
		if lang, ok := r.environment(); ok {
			return lang, SourceEnvironment
		}
	}
	return DefaultLanguage, SourceDefault
}

func (r *LanguageResolver) load(ctx context.Context, store PreferenceStore, name string) (string, bool) {
	if store == nil {
		return "", false
	}
	code, ok, err := store.Load(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Str("store", name).Msg("failed to load language preference")
		return "", false
	}
	if !ok {
		return "", false
	}
	lang, ok := LookupLanguage(code)
	if !ok {
		r.logger.Debug().Str("store", name).Str("code", code).Msg("ignoring unrecognized language preference")
	}
	return lang, ok
}

// Language returns the active language code.
func (r *LanguageResolver) Language() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Source reports which candidate the active language came from.
func (r *LanguageResolver) Source() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.source
}

// SetLanguage makes code the active language, persists it to the choice
// store and the account store, and notifies subscribers when it changed.
// Unknown codes normalize to DefaultLanguage. Persistence failures are
// logged; the new language is active either way.
//
// Articles already translated are not re-translated; consumers that care
// subscribe and request translation again.
func (r *LanguageResolver) SetLanguage(ctx context.Context, code string) {
	lang := NormalizeLanguage(code)

	r.mu.Lock()
	old := r.current
	r.current = lang
	r.source = SourceChoice
	subs := make([]func(old, new string), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	r.persist(ctx, r.choice, SourceChoice, lang)
	r.persist(ctx, r.account, SourceAccount, lang)

	if old == lang {
		return
	}
	r.logger.Info().Str("from", old).Str("to", lang).Msg("reader language changed")
	for _, fn := range subs {
		fn(old, lang)
	}
}

func (r *LanguageResolver) persist(ctx context.Context, store PreferenceStore, name, lang string) {
	if store == nil {
		return
	}
	if err := store.Save(ctx, lang); err != nil {
		r.logger.Warn().Err(err).Str("store", name).Str("language", lang).Msg("failed to persist language preference")
	}
}

// Subscribe registers fn to run after every language change. The returned
// func removes the subscription.
func (r *LanguageResolver) Subscribe(fn func(old, new string)) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subscribers[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subscribers, id)
		r.mu.Unlock()
	}
}
