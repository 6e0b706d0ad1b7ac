package provider

import (
	"context"
	"net/http"
	"strings"
)

// DefaultLibreTranslateURL is the public LibreTranslate endpoint.
const DefaultLibreTranslateURL = "https://libretranslate.com/translate"

// LibreTranslateConfig holds configuration for the LibreTranslate provider.
type LibreTranslateConfig struct {
	URL        string       // Translate endpoint (default: DefaultLibreTranslateURL)
	APIKey     string       // Optional API key
	HTTPClient *http.Client // Optional client (default: 30s timeout)
}

// LibreTranslateProvider translates through a LibreTranslate-compatible API.
type LibreTranslateProvider struct {
	url    string
	apiKey string
	client *http.Client
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText   *string `json:"translatedText"`
	DetectedLanguage *struct {
		Confidence float64 `json:"confidence"`
		Language   string  `json:"language"`
	} `json:"detectedLanguage,omitempty"`
}

// NewLibreTranslateProvider creates a new LibreTranslate provider.
func NewLibreTranslateProvider(cfg LibreTranslateConfig) *LibreTranslateProvider {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = DefaultLibreTranslateURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = defaultHTTPClient()
	}
	return &LibreTranslateProvider{url: url, apiKey: cfg.APIKey, client: client}
}

// Name identifies the provider in cache namespaces and logs.
func (p *LibreTranslateProvider) Name() string { return "libre" }

// Translate translates req.Text. An empty source language asks the service
// to detect it.
func (p *LibreTranslateProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	source := req.SourceLang
	if source == "" {
		source = "auto"
	}

	var resp libreResponse
	err := postJSON(ctx, p.client, p.url, nil, libreRequest{
		Q:      req.Text,
		Source: source,
		Target: req.TargetLang,
		Format: "text",
		APIKey: p.apiKey,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.TranslatedText == nil {
		return "", missingTranslation(http.StatusOK)
	}
	return *resp.TranslatedText, nil
}

// Verify LibreTranslateProvider implements Provider
var _ Provider = (*LibreTranslateProvider)(nil)
