package provider

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockProvider is a map-backed provider for tests and dry runs.
// It is safe for concurrent use.
type MockProvider struct {
	mu           sync.Mutex
	translations map[string]string // source text -> translation
	failures     map[string]error  // source text -> error to return
	delay        time.Duration
	callCount    int
	lastRequest  *TranslateRequest
}

// NewMockProvider creates a new mock provider with a few Spanish to English
// translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		translations: map[string]string{
			"Hola":       "Hello",
			"Mundo":      "World",
			"Texto":      "Text",
			"Hola Mundo": "Hello World",
		},
		failures: make(map[string]error),
	}
}

// SetTranslation registers the translation returned for text.
func (m *MockProvider) SetTranslation(text, translation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.translations[text] = translation
}

// FailOn makes every request for text return err.
func (m *MockProvider) FailOn(text string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[text] = err
}

// SetDelay makes each call take at least d, honouring ctx.
func (m *MockProvider) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Name identifies the provider in cache namespaces and logs.
func (m *MockProvider) Name() string { return "mock" }

// Translate returns the registered translation, or the text tagged with the
// target language when none is registered.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	m.mu.Lock()
	m.callCount++
	r := req
	m.lastRequest = &r
	translation, known := m.translations[req.Text]
	failure := m.failures[req.Text]
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	if failure != nil {
		return "", failure
	}
	if known {
		return translation, nil
	}
	return fmt.Sprintf("[%s] %s", req.TargetLang, req.Text), nil
}

// CallCount returns how many times Translate was called.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset resets the call count and last request.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastRequest = nil
}

// Verify MockProvider implements Provider
var _ Provider = (*MockProvider)(nil)
