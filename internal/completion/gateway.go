// ABOUTME: Wraps the OpenAI Chat Completions API behind a small gateway
// ABOUTME: Exposes availability, single-turn and conversation calls with typed failures

package completion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/patiochat/patio/internal/dialogue"
)

// Completion parameters carried over from the original deployment
const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 500
)

// CapabilityError is returned for any transport or upstream failure of the
// external completion capability. The gateway never retries; fallback policy
// belongs to the caller.
type CapabilityError struct {
	Op  string
	Err error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("completion %s failed: %v", e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// Usage carries the upstream token counters for one call
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Result is the outcome of a successful completion call
type Result struct {
	Text  string
	Usage Usage
}

// Gateway wraps an OpenAI client. A Gateway constructed without an API key
// is permanently unavailable; availability is decided once at construction
// and never re-validated per call.
type Gateway struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewGateway creates a new Gateway. An empty apiKey leaves the gateway
// unavailable (every call fails with a CapabilityError).
func NewGateway(apiKey, model string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "completion")

	g := &Gateway{model: model, logger: logger}

	if apiKey == "" {
		logger.Warn("no OpenAI API key configured, completion gateway disabled")
		return g
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	g.client = &client
	logger.Info("completion gateway initialized", "model", model)
	return g
}

// Available reports whether the gateway holds credentials for the external
// capability.
func (g *Gateway) Available() bool {
	return g.client != nil
}

// Complete performs a single-turn completion, optionally preceded by a
// system prompt.
func (g *Gateway) Complete(ctx context.Context, text, systemPrompt string) (*Result, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(text))

	return g.call(ctx, "message", messages)
}

// CompleteConversation performs a multi-turn completion over a pre-built
// turn sequence.
func (g *Gateway) CompleteConversation(ctx context.Context, turns []dialogue.Turn) (*Result, error) {
	return g.call(ctx, "conversation", buildMessages(turns))
}

// buildMessages converts dialogue turns into OpenAI chat messages
func buildMessages(turns []dialogue.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case dialogue.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Text))
		case dialogue.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		default:
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}
	return messages
}

func (g *Gateway) call(ctx context.Context, op string, messages []openai.ChatCompletionMessageParamUnion) (*Result, error) {
	if !g.Available() {
		return nil, &CapabilityError{Op: op, Err: fmt.Errorf("gateway is not configured")}
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       g.model,
		Messages:    messages,
		Temperature: openai.Float(defaultTemperature),
		MaxTokens:   openai.Int(defaultMaxTokens),
	})
	if err != nil {
		return nil, &CapabilityError{Op: op, Err: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &CapabilityError{Op: op, Err: fmt.Errorf("no choices returned")}
	}

	result := &Result{
		Text: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	g.logger.Debug("completion generated", "op", op, "total_tokens", result.Usage.TotalTokens)
	return result, nil
}
