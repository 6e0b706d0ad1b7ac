// Package news fetches and normalizes articles from TheNewsAPI or
// NewsData.io, with short-lived response caching.
package news

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ZaguanLabs/newslate"
	"github.com/ZaguanLabs/newslate/cache"
	"github.com/ZaguanLabs/newslate/logging"
	"github.com/ZaguanLabs/newslate/processor"
	"github.com/rs/zerolog"
)

const (
	// DefaultTheNewsAPIURL is TheNewsAPI's news root.
	DefaultTheNewsAPIURL = "https://api.thenewsapi.com/v1/news"

	// DefaultNewsDataURL is NewsData.io's latest-news endpoint.
	DefaultNewsDataURL = "https://newsdata.io/api/1/news"

	// ListCacheTTL is how long a listing is served from cache.
	ListCacheTTL = 5 * time.Minute

	// ArticleCacheTTL is how long a single article is served from cache.
	ArticleCacheTTL = 30 * time.Minute

	maxErrorBody = 64 << 10
)

// Config holds the news client configuration.
type Config struct {
	// TheNewsAPIKey selects TheNewsAPI; it wins when both keys are set.
	TheNewsAPIKey string
	// NewsDataKey selects NewsData.io.
	NewsDataKey string

	TheNewsAPIURL string // default: DefaultTheNewsAPIURL
	NewsDataURL   string // default: DefaultNewsDataURL

	HTTPClient *http.Client // default: 30s timeout

	// ListCache and ArticleCache store JSON-encoded responses. Nil selects
	// in-memory caches with ListCacheTTL and ArticleCacheTTL.
	ListCache    cache.TranslationCache
	ArticleCache cache.TranslationCache

	Logger *zerolog.Logger
}

// Client fetches normalized news.
type Client struct {
	backend      Backend
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	listCache    cache.TranslationCache
	articleCache cache.TranslationCache
	html         *processor.HTMLProcessor
	logger       zerolog.Logger
}

// New creates a news client.
func New(cfg Config) (*Client, error) {
	c := &Client{
		httpClient:   cfg.HTTPClient,
		listCache:    cfg.ListCache,
		articleCache: cfg.ArticleCache,
		html:         processor.NewHTMLProcessor(),
		logger:       logging.NewLogger("news"),
	}

	switch {
	case cfg.TheNewsAPIKey != "":
		c.backend, c.apiKey, c.baseURL = BackendTheNewsAPI, cfg.TheNewsAPIKey, cfg.TheNewsAPIURL
		if c.baseURL == "" {
			c.baseURL = DefaultTheNewsAPIURL
		}
	case cfg.NewsDataKey != "":
		c.backend, c.apiKey, c.baseURL = BackendNewsData, cfg.NewsDataKey, cfg.NewsDataURL
		if c.baseURL == "" {
			c.baseURL = DefaultNewsDataURL
		}
	default:
		return nil, ErrNoAPIKey
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.listCache == nil {
		c.listCache = cache.NewMemoryCache(cache.MemoryConfig{Name: "news_list", TTL: ListCacheTTL, MaxEntries: cache.DefaultMaxEntries})
	}
	if c.articleCache == nil {
		c.articleCache = cache.NewMemoryCache(cache.MemoryConfig{Name: "news_article", TTL: ArticleCacheTTL, MaxEntries: cache.DefaultMaxEntries})
	}
	if cfg.Logger != nil {
		c.logger = *cfg.Logger
	}

	return c, nil
}

// Backend reports which upstream the client talks to.
func (c *Client) Backend() Backend {
	return c.backend
}

// FetchNews returns a page of articles matching q.
func (c *Client) FetchNews(ctx context.Context, q Query) (*Response, error) {
	q = q.withDefaults()
	key := q.cacheKey(c.backend)

	var cached Response
	if c.lookup(c.listCache, "list", key, &cached) {
		return &cached, nil
	}

	var resp *Response
	var err error
	switch c.backend {
	case BackendTheNewsAPI:
		resp, err = c.fetchTheNewsAPIList(ctx, q)
	default:
		resp, err = c.fetchNewsDataList(ctx, q)
	}
	if err != nil {
		return nil, err
	}

	c.store(c.listCache, key, resp)
	return resp, nil
}

// FetchArticle returns the article with the given ID.
func (c *Client) FetchArticle(ctx context.Context, id string) (*newslate.Article, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingID
	}
	key := articleCacheKey(c.backend, id)

	var cached newslate.Article
	if c.lookup(c.articleCache, "article", key, &cached) {
		return &cached, nil
	}

	var article *newslate.Article
	var err error
	switch c.backend {
	case BackendTheNewsAPI:
		article, err = c.fetchTheNewsAPIArticle(ctx, id)
	default:
		article, err = c.fetchNewsDataArticle(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	c.store(c.articleCache, key, article)
	return article, nil
}

func (c *Client) fetchTheNewsAPIList(ctx context.Context, q Query) (*Response, error) {
	params := url.Values{}
	params.Set("api_token", c.apiKey)
	params.Set("language", q.Language)
	params.Set("limit", strconv.Itoa(q.PageSize))
	params.Set("page", strconv.Itoa(q.Page))
	if q.Query != "" {
		params.Set("search", q.Query)
	}
	if q.Category != "" {
		params.Set("categories", q.Category)
	}
	if q.StartDate != "" {
		params.Set("published_after", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("published_before", q.EndDate)
	}

	var raw theNewsAPIList
	if err := c.getJSON(ctx, "list", c.baseURL+"/all", params, &raw); err != nil {
		return nil, err
	}

	resp := &Response{
		Status:       "success",
		TotalResults: raw.Meta.Found,
		Articles:     make([]newslate.Article, 0, len(raw.Data)),
	}
	for _, a := range raw.Data {
		resp.Articles = append(resp.Articles, c.fromTheNewsAPI(a))
	}
	return resp, nil
}

func (c *Client) fetchTheNewsAPIArticle(ctx context.Context, id string) (*newslate.Article, error) {
	params := url.Values{}
	params.Set("api_token", c.apiKey)

	var body json.RawMessage
	err := c.getJSON(ctx, "article", c.baseURL+"/uuid/"+url.PathEscape(id), params, &body)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	// The article is either the body itself or wrapped in "data".
	var wrapped struct {
		Data *theNewsAPIArticle `json:"data"`
	}
	var raw theNewsAPIArticle
	if json.Unmarshal(body, &wrapped) == nil && wrapped.Data != nil {
		raw = *wrapped.Data
	} else if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &APIError{Backend: c.backend, StatusCode: http.StatusOK, Message: "malformed article", Err: err}
	}
	if raw.UUID == "" {
		return nil, ErrArticleNotFound
	}

	article := c.fromTheNewsAPI(raw)
	return &article, nil
}

func (c *Client) fetchNewsDataList(ctx context.Context, q Query) (*Response, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("language", q.Language)
	params.Set("size", strconv.Itoa(q.PageSize))
	params.Set("page", strconv.Itoa(q.Page))
	if q.Query != "" {
		params.Set("q", q.Query)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.StartDate != "" {
		params.Set("from_date", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("to_date", q.EndDate)
	}

	var raw newsDataList
	if err := c.getJSON(ctx, "list", c.baseURL, params, &raw); err != nil {
		return nil, err
	}

	resp := &Response{
		Status:       raw.Status,
		TotalResults: raw.TotalResults,
		Articles:     make([]newslate.Article, 0, len(raw.Results)),
	}
	for _, a := range raw.Results {
		resp.Articles = append(resp.Articles, c.fromNewsData(a))
	}
	return resp, nil
}

// fetchNewsDataArticle searches by ID; NewsData.io has no lookup endpoint.
func (c *Client) fetchNewsDataArticle(ctx context.Context, id string) (*newslate.Article, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("q", id)

	var raw newsDataList
	if err := c.getJSON(ctx, "article", c.baseURL, params, &raw); err != nil {
		return nil, err
	}
	if len(raw.Results) == 0 {
		return nil, ErrArticleNotFound
	}

	article := c.fromNewsData(raw.Results[0])
	return &article, nil
}

func (c *Client) fromTheNewsAPI(a theNewsAPIArticle) newslate.Article {
	content := a.Snippet
	if strings.TrimSpace(content) == "" {
		content = a.Description
	}
	return newslate.Article{
		ID:          a.UUID,
		Title:       c.html.MustPlainText(a.Title),
		Description: c.html.MustPlainText(a.Description),
		Content:     c.html.MustPlainText(content),
		URL:         a.URL,
		Image:       a.ImageURL,
		PublishedAt: a.PublishedAt,
		Source:      newslate.Source{Name: a.Source, URL: a.SourceURL},
		Category:    firstOr(a.Categories, "general"),
		Language:    articleLanguage(a.Language),
	}
}

func (c *Client) fromNewsData(a newsDataArticle) newslate.Article {
	content := a.Content
	if strings.TrimSpace(content) == "" || content == newsDataPaidOnly {
		content = a.Description
	}
	return newslate.Article{
		ID:          a.ArticleID,
		Title:       c.html.MustPlainText(a.Title),
		Description: c.html.MustPlainText(a.Description),
		Content:     c.html.MustPlainText(content),
		URL:         a.Link,
		Image:       a.ImageURL,
		PublishedAt: a.PubDate,
		Source:      newslate.Source{Name: a.SourceID, URL: a.SourceURL},
		Category:    firstOr(a.Category, "general"),
		Language:    articleLanguage(a.Language),
	}
}

// getJSON issues a GET and decodes a 2xx body into out.
func (c *Client) getJSON(ctx context.Context, operation, endpoint string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", newslate.UserAgent())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	newsRequestDuration.WithLabelValues(string(c.backend)).Observe(time.Since(start).Seconds())
	if err != nil {
		newsRequestsTotal.WithLabelValues(string(c.backend), operation, "error").Inc()
		c.logger.Error().Err(err).Str("operation", operation).Msg("news request failed")
		return &APIError{Backend: c.backend, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	newsRequestsTotal.WithLabelValues(string(c.backend), operation, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{Backend: c.backend, StatusCode: resp.StatusCode, Message: upstreamMessage(raw, resp.StatusCode)}
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("operation", operation).
			Str("message", apiErr.Message).
			Msg("news API returned an error")
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Backend: c.backend, StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

// upstreamMessage extracts the error message from TheNewsAPI
// ({"error": {"message"}}) or NewsData.io ({"results": {"message"}}) bodies.
func upstreamMessage(raw []byte, status int) string {
	var body struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
		Results struct {
			Message string `json:"message"`
		} `json:"results"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if dec.Decode(&body) == nil {
		for _, m := range []string{body.Error.Message, body.Results.Message, body.Message} {
			if m != "" {
				return m
			}
		}
	}
	return http.StatusText(status)
}

// lookup decodes a cached JSON value into out.
func (c *Client) lookup(store cache.TranslationCache, operation, key string, out any) bool {
	data, ok := store.Get(key)
	if !ok {
		newsCacheTotal.WithLabelValues(operation, "miss").Inc()
		return false
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cached news response")
		newsCacheTotal.WithLabelValues(operation, "miss").Inc()
		return false
	}
	newsCacheTotal.WithLabelValues(operation, "hit").Inc()
	return true
}

func (c *Client) store(store cache.TranslationCache, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Msg("encoding news response for cache")
		return
	}
	if err := store.Set(key, string(data)); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("caching news response")
	}
}
