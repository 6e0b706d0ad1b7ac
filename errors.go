package newslate

import (
	"fmt"
	"sort"
	"strings"
)

// TranslationError is returned when a text could not be translated and the
// caller received the original text instead.
type TranslationError struct {
	Message string
	Cause   error
}

func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// ProviderError indicates an upstream translation failure (network, non-2xx,
// malformed response). Message carries the upstream message when one exists.
type ProviderError struct {
	Message    string
	Cause      error
	StatusCode int  // HTTP status from upstream, 0 if the request never completed
	Retryable  bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// CacheError indicates a cache operation failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// ArticleError lists the fields of one article that kept their original
// text because translation failed. The article returned alongside it is
// still complete and marked translated.
type ArticleError struct {
	ArticleID string
	Fields    map[Field]error
}

func (e *ArticleError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, string(f))
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %v", name, e.Fields[Field(name)])
	}
	return fmt.Sprintf("article %q: %d field(s) untranslated: %s",
		e.ArticleID, len(names), strings.Join(parts, "; "))
}

// Unwrap exposes the field errors to errors.Is and errors.As.
func (e *ArticleError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields))
	for _, f := range TranslatableFields {
		if err, ok := e.Fields[f]; ok {
			errs = append(errs, err)
		}
	}
	return errs
}

// Failed reports whether field f fell back to its original text.
func (e *ArticleError) Failed(f Field) bool {
	_, ok := e.Fields[f]
	return ok
}

// ProcessorError indicates content could not be parsed or rendered.
type ProcessorError struct {
	Message     string
	Cause       error
	ContentType string // e.g. "html"
}

func (e *ProcessorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("processor error (%s): %s: %v", e.ContentType, e.Message, e.Cause)
	}
	return fmt.Sprintf("processor error (%s): %s", e.ContentType, e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Cause
}
