package newslate

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// stubProvider records every request and answers through fn.
type stubProvider struct {
	mu    sync.Mutex
	fn    func(ctx context.Context, req TranslateRequest) (string, error)
	calls []TranslateRequest
}

func (p *stubProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	fn := p.fn
	p.mu.Unlock()

	if fn == nil {
		return "[" + req.TargetLang + "] " + req.Text, nil
	}
	return fn(ctx, req)
}

func (p *stubProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *stubProvider) Requests() []TranslateRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TranslateRequest(nil), p.calls...)
}

// dictProvider translates known texts and fails on everything else.
func dictProvider(dict map[string]string) *stubProvider {
	return &stubProvider{fn: func(_ context.Context, req TranslateRequest) (string, error) {
		if out, ok := dict[req.Text]; ok {
			return out, nil
		}
		return "", &ProviderError{Message: fmt.Sprintf("no translation for %q", req.Text), StatusCode: 500}
	}}
}

// mapCache is a minimal unbounded TranslationCache.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]string)}
}

func (c *mapCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *mapCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// waitFor polls cond until it holds or the timeout passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
