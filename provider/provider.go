// Package provider implements text translation backends for newslate.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZaguanLabs/newslate"
)

// Provider is the interface for translation backends.
// This is an alias to the main package interface for convenience.
type Provider = newslate.Provider

// TranslateRequest is an alias to the main package type.
type TranslateRequest = newslate.TranslateRequest

// DefaultHTTPTimeout bounds a single upstream request when the caller's
// context carries no deadline.
const DefaultHTTPTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultHTTPTimeout}
}

// errorBody covers the error shapes of LibreTranslate ({"error": ...}) and
// the newslate server ({"message": ..., "error": ...}).
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// postJSON sends body as JSON and decodes a 2xx response into out.
// Failures are returned as *newslate.ProviderError.
func postJSON(ctx context.Context, client *http.Client, url string, header http.Header, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &newslate.ProviderError{Message: "encoding request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &newslate.ProviderError{Message: "building request", Cause: err}
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", newslate.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &newslate.ProviderError{Message: "request cancelled", Cause: err}
		}
		return &newslate.ProviderError{Message: "request failed", Cause: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &newslate.ProviderError{
			Message:    "malformed response",
			Cause:      err,
			StatusCode: resp.StatusCode,
		}
	}
	return nil
}

// statusError builds the error for a non-2xx response, preferring the
// upstream message.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := http.StatusText(resp.StatusCode)
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		switch {
		case eb.Error != "" && eb.Message != "":
			msg = eb.Message + ": " + eb.Error
		case eb.Error != "":
			msg = eb.Error
		case eb.Message != "":
			msg = eb.Message
		}
	} else if text := strings.TrimSpace(string(raw)); text != "" {
		msg = text
	}

	return &newslate.ProviderError{
		Message:    msg,
		StatusCode: resp.StatusCode,
		Retryable:  retryableStatus(resp.StatusCode),
	}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

// errEmptyTranslation is returned when a 2xx response carries no translation.
var errEmptyTranslation = errors.New("response has no translatedText")

func missingTranslation(status int) error {
	return &newslate.ProviderError{
		Message:    "malformed response",
		Cause:      errEmptyTranslation,
		StatusCode: status,
	}
}
