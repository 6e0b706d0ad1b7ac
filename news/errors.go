package news

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAPIKey is returned by New when neither backend is configured.
	ErrNoAPIKey = errors.New("news: no API key configured (THE_NEWS_API_KEY or NEWSDATA_IO_KEY)")

	// ErrArticleNotFound is returned when the upstream has no article for an ID.
	ErrArticleNotFound = errors.New("news: article not found")

	// ErrMissingID is returned by FetchArticle for an empty ID.
	ErrMissingID = errors.New("news: article ID is required")
)

// APIError is a non-2xx reply or unreadable body from the news API.
type APIError struct {
	Backend    Backend
	StatusCode int // 0 if the request never completed
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("news api %s error: %s: %v", e.Backend, msg, e.Err)
	}
	return fmt.Sprintf("news api %s error: %s", e.Backend, msg)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}
