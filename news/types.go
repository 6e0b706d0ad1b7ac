package news

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/ZaguanLabs/newslate"
)

// Backend identifies the upstream news API.
type Backend string

const (
	BackendTheNewsAPI Backend = "thenewsapi"
	BackendNewsData   Backend = "newsdata"
)

// Query filters a news listing.
type Query struct {
	Category  string `json:"category,omitempty"`
	Query     string `json:"query,omitempty"`
	StartDate string `json:"startDate,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"endDate,omitempty"`   // YYYY-MM-DD
	Language  string `json:"language,omitempty"`  // default "en"
	Page      int    `json:"page,omitempty"`      // default 1
	PageSize  int    `json:"pageSize,omitempty"`  // default 10
}

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 50
)

// withDefaults fills unset fields.
func (q Query) withDefaults() Query {
	if q.Language == "" {
		q.Language = newslate.DefaultLanguage
	} else {
		q.Language = newslate.NormalizeLanguage(q.Language)
	}
	if q.Page < 1 {
		q.Page = defaultPage
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	q.Category = strings.ToLower(strings.TrimSpace(q.Category))
	q.Query = strings.TrimSpace(q.Query)
	return q
}

// cacheKey is deterministic for equal queries against the same backend.
// Format: news:list:backend:category=x:language=en:page=1:...
func (q Query) cacheKey(b Backend) string {
	fields := map[string]string{
		"category":  q.Category,
		"query":     q.Query,
		"startDate": q.StartDate,
		"endDate":   q.EndDate,
		"language":  q.Language,
		"page":      strconv.Itoa(q.Page),
		"pageSize":  strconv.Itoa(q.PageSize),
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := []string{"news", "list", string(b)}
	for _, name := range names {
		if fields[name] == "" {
			continue
		}
		parts = append(parts, name+"="+url.QueryEscape(fields[name]))
	}
	return strings.Join(parts, ":")
}

func articleCacheKey(b Backend, id string) string {
	return "news:article:" + string(b) + ":" + id
}

// Response is a normalized news listing.
type Response struct {
	Status       string             `json:"status"`
	TotalResults int                `json:"totalResults"`
	Articles     []newslate.Article `json:"articles"`
}

// theNewsAPIArticle is one article in TheNewsAPI's wire format.
type theNewsAPIArticle struct {
	UUID        string   `json:"uuid"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Snippet     string   `json:"snippet"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"image_url"`
	Language    string   `json:"language"`
	PublishedAt string   `json:"published_at"`
	Source      string   `json:"source"`
	SourceURL   string   `json:"source_url"`
	Categories  []string `json:"categories"`
}

type theNewsAPIList struct {
	Meta struct {
		Found    int `json:"found"`
		Returned int `json:"returned"`
		Limit    int `json:"limit"`
		Page     int `json:"page"`
	} `json:"meta"`
	Data []theNewsAPIArticle `json:"data"`
}

// newsDataArticle is one article in NewsData.io's wire format.
type newsDataArticle struct {
	ArticleID   string   `json:"article_id"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	PubDate     string   `json:"pubDate"`
	ImageURL    string   `json:"image_url"`
	SourceID    string   `json:"source_id"`
	SourceURL   string   `json:"source_url"`
	Language    string   `json:"language"`
	Category    []string `json:"category"`
}

type newsDataList struct {
	Status       string            `json:"status"`
	TotalResults int               `json:"totalResults"`
	Results      []newsDataArticle `json:"results"`
	NextPage     string            `json:"nextPage"`
}

// newsDataPaidOnly is what the free NewsData.io plan sends in place of content.
const newsDataPaidOnly = "ONLY AVAILABLE IN PAID PLANS"

func firstOr(values []string, fallback string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return strings.ToLower(v)
		}
	}
	return fallback
}

func articleLanguage(raw string) string {
	if lang, ok := newslate.LookupLanguage(raw); ok {
		return lang
	}
	return newslate.DefaultLanguage
}
