package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ZaguanLabs/newslate"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider translates with an OpenAI-compatible chat model.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.2)
	BaseURL     string  // Custom base URL (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Name identifies the provider in cache namespaces and logs.
func (p *OpenAIProvider) Name() string { return "openai" }

// Translate translates a single text with one chat completion.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: p.buildUserMessage(req)},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", apiError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &newslate.ProviderError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}

	return p.parseResponse(resp.Choices[0].Message.Content)
}

func (p *OpenAIProvider) buildSystemPrompt(req TranslateRequest) string {
	target := newslate.GetLanguageName(req.TargetLang)

	source := "the source language (detect it)"
	if req.SourceLang != "" {
		source = newslate.GetLanguageName(req.SourceLang)
	}

	prompt := fmt.Sprintf(`# Role
You are a news desk translator. You translate news copy from %s into %s for readers of a news aggregator.

# Style Guide
- **Accuracy**: Keep every fact, figure, date, quote and attribution exactly as reported. Never add, soften or editorialize.
- **Register**: Use the neutral register of a %s newspaper. Headlines stay short and headline-like.
- **Names**: Keep person, organization and place names in their established %s form; leave them untranslated when none exists.
- **Numbers**: Keep numbers and currencies as written; adapt only decimal and thousands separators.
- **Formatting**: Preserve line breaks and paragraph boundaries. Do not add Markdown.
- **Truncation**: Text may end mid-sentence or with a marker like "[+1234 chars]". Translate what is there and keep the marker as is.`,
		source, target, target, target)

	if newslate.IsRTL(req.TargetLang) {
		prompt += "\n- **Direction**: The target language is written right to left; keep Latin-script names and URLs intact."
	}

	prompt += `

# Format
Return a valid JSON object with a single key "translation" holding the translated text.
Example: { "translation": "translated text" }
- Do NOT wrap in Markdown code blocks.`

	return prompt
}

func (p *OpenAIProvider) buildUserMessage(req TranslateRequest) string {
	data, _ := json.Marshal(map[string]string{"text": req.Text})
	return string(data)
}

func (p *OpenAIProvider) parseResponse(content string) (string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSuffix(strings.TrimPrefix(content, "```"), "```")

	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err == nil {
		if s, ok := obj["translation"].(string); ok {
			return s, nil
		}

		// Fallback: the only string value
		var found []string
		for _, v := range obj {
			if s, ok := v.(string); ok {
				found = append(found, s)
			}
		}
		if len(found) == 1 {
			return found[0], nil
		}
	}

	return "", &newslate.ProviderError{
		Message:   "invalid response format from OpenAI",
		Retryable: false,
	}
}

// apiError maps a go-openai error to a ProviderError with the upstream
// status when one is known.
func apiError(err error) error {
	perr := &newslate.ProviderError{Message: "OpenAI API call failed", Cause: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		perr.Message = apiErr.Message
		perr.StatusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		perr.StatusCode = reqErr.HTTPStatusCode
	}

	if perr.StatusCode != 0 {
		perr.Retryable = retryableStatus(perr.StatusCode)
	} else {
		perr.Retryable = isRetryableError(err)
	}
	return perr
}

func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"connection reset",
		"temporary",
		"eof",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
