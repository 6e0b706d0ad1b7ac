package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ZaguanLabs/newslate"
	"github.com/ZaguanLabs/newslate/news"
	"github.com/go-chi/chi/v5"
)

var errNewsDisabled = errors.New("no news API key configured")

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":   "ok",
		"version":  newslate.FullVersion(),
		"provider": s.deps.ProviderName,
		"news":     s.deps.News != nil,
	}
	status := http.StatusOK

	if s.deps.Cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Cache.Ping(ctx); err != nil {
			resp["status"] = "degraded"
			resp["cache"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			resp["cache"] = "ok"
		}
	}

	s.writeJSON(w, status, resp)
}

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
	SourceLanguage string `json:"sourceLanguage"`
}

type translateResponse struct {
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	SourceLanguage string `json:"sourceLanguage,omitempty"`
	TargetLanguage string `json:"targetLanguage"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Text == "" {
		s.writeError(w, http.StatusBadRequest, "Text is required", nil)
		return
	}
	if req.TargetLanguage == "" {
		s.writeError(w, http.StatusBadRequest, "Target language is required", nil)
		return
	}

	translated, err := s.deps.Translator.TranslateTextTo(r.Context(), req.Text, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "Failed to translate text", err)
		return
	}

	s.writeJSON(w, http.StatusOK, translateResponse{
		OriginalText:   req.Text,
		TranslatedText: translated,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
	})
}

// articleView is an article plus the fields that kept their original text.
type articleView struct {
	newslate.Article
	TranslationFailures map[string]string `json:"translationFailures,omitempty"`
}

func viewOf(a newslate.Article, err error) articleView {
	v := articleView{Article: a}
	var artErr *newslate.ArticleError
	if errors.As(err, &artErr) {
		v.TranslationFailures = make(map[string]string, len(artErr.Fields))
		for f, ferr := range artErr.Fields {
			v.TranslationFailures[string(f)] = ferr.Error()
		}
	}
	return v
}

// translationFailed reports whether err means no translated result exists,
// as opposed to a partial translation.
func translationFailed(err error) bool {
	var artErr *newslate.ArticleError
	return err != nil && !errors.As(err, &artErr)
}

type translateArticleRequest struct {
	Article        newslate.Article `json:"article"`
	TargetLanguage string           `json:"targetLanguage"`
}

type translateArticleResponse struct {
	Article  articleView `json:"article"`
	Language string      `json:"language"`
}

func (s *Server) handleTranslateArticle(w http.ResponseWriter, r *http.Request) {
	var req translateArticleRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	target := req.TargetLanguage
	if target == "" {
		target = s.resolver(r).Language()
	}
	target = newslate.NormalizeLanguage(target)

	translated, err := s.deps.Translator.TranslateArticleTo(r.Context(), req.Article, target)
	if translationFailed(err) {
		s.writeError(w, http.StatusGatewayTimeout, "Translation did not finish", err)
		return
	}

	s.writeJSON(w, http.StatusOK, translateArticleResponse{
		Article:  viewOf(translated, err),
		Language: target,
	})
}

type newsResponse struct {
	Status       string        `json:"status"`
	TotalResults int           `json:"totalResults"`
	Articles     []articleView `json:"articles"`
	Language     string        `json:"language,omitempty"`
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.deps.News == nil {
		s.writeError(w, http.StatusServiceUnavailable, "News is not available", errNewsDisabled)
		return
	}

	params := r.URL.Query()
	q := news.Query{
		Category:  params.Get("category"),
		Query:     params.Get("query"),
		StartDate: params.Get("startDate"),
		EndDate:   params.Get("endDate"),
		Language:  params.Get("language"),
	}
	var err error
	if q.Page, err = intParam(params.Get("page")); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid page", err)
		return
	}
	if q.PageSize, err = intParam(params.Get("pageSize")); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid pageSize", err)
		return
	}

	resp, err := s.deps.News.FetchNews(r.Context(), q)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "Failed to fetch news articles", err)
		return
	}

	out := newsResponse{
		Status:       resp.Status,
		TotalResults: resp.TotalResults,
		Articles:     make([]articleView, len(resp.Articles)),
	}

	if !wantTranslation(r) {
		for i, a := range resp.Articles {
			out.Articles[i] = articleView{Article: a}
		}
		s.writeJSON(w, http.StatusOK, out)
		return
	}

	out.Language = s.resolver(r).Language()
	for i, res := range s.deps.Translator.TranslateArticlesTo(r.Context(), resp.Articles, out.Language) {
		if translationFailed(res.Err) {
			s.writeError(w, http.StatusGatewayTimeout, "Translation did not finish", res.Err)
			return
		}
		out.Articles[i] = viewOf(res.Article, res.Err)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	if s.deps.News == nil {
		s.writeError(w, http.StatusServiceUnavailable, "News is not available", errNewsDisabled)
		return
	}

	article, err := s.deps.News.FetchArticle(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, news.ErrMissingID):
		s.writeError(w, http.StatusBadRequest, "Article ID is required", nil)
		return
	case errors.Is(err, news.ErrArticleNotFound):
		s.writeError(w, http.StatusNotFound, "Article not found", nil)
		return
	case err != nil:
		s.writeError(w, http.StatusBadGateway, "Failed to fetch article", err)
		return
	}

	if !wantTranslation(r) {
		s.writeJSON(w, http.StatusOK, articleView{Article: *article})
		return
	}

	translated, err := s.deps.Translator.TranslateArticleTo(r.Context(), *article, s.resolver(r).Language())
	if translationFailed(err) {
		s.writeError(w, http.StatusGatewayTimeout, "Translation did not finish", err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(translated, err))
}

// languageResponse describes the session language. InPicker is false for
// languages reached through aliases or headers that the picker does not list.
type languageResponse struct {
	Language  string              `json:"language"`
	Name      string              `json:"name"`
	Direction string              `json:"direction"`
	Source    string              `json:"source"`
	InPicker  bool                `json:"inPicker"`
	Supported []newslate.Language `json:"supported"`
}

type setLanguageRequest struct {
	Language string `json:"language"`
}

func (s *Server) handleGetLanguage(w http.ResponseWriter, r *http.Request) {
	s.writeLanguage(w, s.resolver(r))
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req setLanguageRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Language) == "" {
		s.writeError(w, http.StatusBadRequest, "Language is required", nil)
		return
	}

	res := s.resolver(r)
	res.SetLanguage(r.Context(), req.Language)
	s.writeLanguage(w, res)
}

func (s *Server) writeLanguage(w http.ResponseWriter, res *newslate.LanguageResolver) {
	lang := res.Language()
	s.writeJSON(w, http.StatusOK, languageResponse{
		Language:  lang,
		Name:      newslate.GetLanguageName(lang),
		Direction: newslate.GetDirection(lang),
		Source:    res.Source(),
		InPicker:  newslate.IsSupported(lang),
		Supported: newslate.SupportedLanguages,
	})
}

// resolver builds the session's LanguageResolver. The environment default
// comes from the request's Accept-Language header.
func (s *Server) resolver(r *http.Request) *newslate.LanguageResolver {
	header := r.Header.Get("Accept-Language")
	opts := []newslate.ResolverOption{
		newslate.WithEnvironment(func() (string, bool) {
			return newslate.AcceptLanguage(header)
		}),
		newslate.WithResolverLogger(s.logger),
	}
	if s.deps.Sessions != nil {
		opts = append(opts, newslate.WithChoiceStore(s.deps.Sessions(sessionID(r.Context()))))
	}
	return newslate.NewLanguageResolver(r.Context(), opts...)
}

func wantTranslation(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("translate"))
	return ok
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return n, nil
}
