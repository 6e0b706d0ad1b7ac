package provider

import (
	"context"
	"net/http"
	"strings"
)

// BackendConfig holds configuration for the newslate backend provider.
type BackendConfig struct {
	BaseURL    string       // Server root, e.g. "http://localhost:5000"
	SessionID  string       // Optional X-Session-ID header
	HTTPClient *http.Client // Optional client (default: 30s timeout)
}

// BackendProvider translates through a newslate server's /api/translate
// endpoint, which holds the upstream credentials.
type BackendProvider struct {
	url       string
	sessionID string
	client    *http.Client
}

type backendRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
	SourceLanguage string `json:"sourceLanguage,omitempty"`
}

type backendResponse struct {
	OriginalText   string  `json:"originalText"`
	TranslatedText *string `json:"translatedText"`
	SourceLanguage string  `json:"sourceLanguage"`
	TargetLanguage string  `json:"targetLanguage"`
}

// NewBackendProvider creates a new backend provider.
func NewBackendProvider(cfg BackendConfig) *BackendProvider {
	client := cfg.HTTPClient
	if client == nil {
		client = defaultHTTPClient()
	}
	return &BackendProvider{
		url:       strings.TrimRight(cfg.BaseURL, "/") + "/api/translate",
		sessionID: cfg.SessionID,
		client:    client,
	}
}

// Name identifies the provider in cache namespaces and logs.
func (p *BackendProvider) Name() string { return "backend" }

// Translate implements Provider.
func (p *BackendProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	var header http.Header
	if p.sessionID != "" {
		header = http.Header{"X-Session-Id": {p.sessionID}}
	}

	var resp backendResponse
	err := postJSON(ctx, p.client, p.url, header, backendRequest{
		Text:           req.Text,
		TargetLanguage: req.TargetLang,
		SourceLanguage: req.SourceLang,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.TranslatedText == nil {
		return "", missingTranslation(http.StatusOK)
	}
	return *resp.TranslatedText, nil
}

// Verify BackendProvider implements Provider
var _ Provider = (*BackendProvider)(nil)
