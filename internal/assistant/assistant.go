// Package assistant wraps chat completions for the two AI features of the
// cellar: reading a label photograph into wine fields, and answering questions
// about the collection with links back to specific bottles.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hyperengineering/cellar/internal/config"
)

var (
	// ErrNotConfigured is returned when no API key is available.
	ErrNotConfigured = errors.New("assistant not configured")
	// ErrInvalidImage is returned when a label image is not a base64 data URL.
	ErrInvalidImage = errors.New("invalid image format")
	// ErrUnparseableResponse is returned when the model reply is not the
	// requested JSON object.
	ErrUnparseableResponse = errors.New("unparseable model response")
	// ErrEmptyResponse is returned when the model produced no choices.
	ErrEmptyResponse = errors.New("empty model response")
	// ErrUpstream wraps failures of the completions API itself.
	ErrUpstream = errors.New("chat completion failed")
)

// NotConfiguredReply is shown in place of a chat answer when no key is set.
const NotConfiguredReply = "AI chat is not configured. Set OPENAI_API_KEY to enable this feature."

// CompletionsService defines the interface for making chat completion calls.
// This abstraction enables testing without calling the real OpenAI API.
type CompletionsService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Assistant answers label and chat requests.
type Assistant struct {
	completions CompletionsService
	model       openai.ChatModel
	visionModel openai.ChatModel
	maxTokens   int64
	timeout     time.Duration
}

// New creates an Assistant from configuration. Without an API key the
// returned Assistant reports ErrNotConfigured from every call.
func New(cfg config.AssistantConfig) *Assistant {
	a := newAssistant(nil, cfg)
	if cfg.Configured() {
		client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
		a.completions = client.Chat.Completions
	}
	return a
}

// NewWithService creates an Assistant over an existing completions service.
func NewWithService(svc CompletionsService, cfg config.AssistantConfig) *Assistant {
	return newAssistant(svc, cfg)
}

func newAssistant(svc CompletionsService, cfg config.AssistantConfig) *Assistant {
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = cfg.Model
	}
	return &Assistant{
		completions: svc,
		model:       openai.ChatModel(cfg.Model),
		visionModel: openai.ChatModel(visionModel),
		maxTokens:   int64(cfg.MaxTokens),
		timeout:     time.Duration(cfg.Timeout),
	}
}

// Configured reports whether calls can reach the model.
func (a *Assistant) Configured() bool {
	return a != nil && a.completions != nil
}

// complete sends one request and returns the first choice's text.
func (a *Assistant) complete(ctx context.Context, model openai.ChatModel, maxTokens int64, messages ...openai.ChatCompletionMessageParamUnion) (string, error) {
	if !a.Configured() {
		return "", ErrNotConfigured
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Messages: openai.F(messages),
		Model:    openai.F(model),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.F(maxTokens)
	}

	resp, err := a.completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
