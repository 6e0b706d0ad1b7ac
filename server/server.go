// Package server exposes the translation core and the news proxy over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ZaguanLabs/newslate"
	"github.com/ZaguanLabs/newslate/news"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewsSource fetches articles from an upstream news API.
type NewsSource interface {
	FetchNews(ctx context.Context, q news.Query) (*news.Response, error)
	FetchArticle(ctx context.Context, id string) (*newslate.Article, error)
}

// SessionStores returns the preference store of a session.
type SessionStores func(session string) newslate.PreferenceStore

// Pinger checks a backing service for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the components the server is built from.
type Deps struct {
	Translator   *newslate.Translator
	ProviderName string
	News         NewsSource // nil disables the news endpoints
	Sessions     SessionStores
	Cache        Pinger // optional
	Logger       zerolog.Logger
}

// Server serves the HTTP API.
type Server struct {
	cfg    Config
	deps   Deps
	router chi.Router
	srv    *http.Server
	logger zerolog.Logger
}

// New builds the server and its routes.
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
	}
	s.router = s.routes()
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type", SessionHeader},
		ExposedHeaders:   []string{SessionHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(chimw.Timeout(s.cfg.RequestTimeout))
		}
		r.Use(s.session)

		r.Post("/translate", s.handleTranslate)
		r.Post("/articles/translate", s.handleTranslateArticle)

		r.Get("/news", s.handleNews)
		r.Get("/news/{id}", s.handleArticle)

		r.Get("/language", s.handleGetLanguage)
		r.Put("/language", s.handleSetLanguage)
	})

	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listening address.
func (s *Server) Addr() string { return s.cfg.Addr }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("http listening")
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info().Msg("shutting down")
	return s.srv.Shutdown(shutdownCtx)
}
