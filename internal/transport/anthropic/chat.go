// Package anthropic is the Claude chat completion provider.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogchat/internal/domain"
	"github.com/kailas-cloud/catalogchat/internal/domain/conversation"
	"github.com/kailas-cloud/catalogchat/internal/metrics"
)

const provider = "anthropic"

// Chat is a chat completion provider backed by the Anthropic Messages API.
type Chat struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float32
	logger      *zap.Logger
}

// Config holds the Anthropic provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	MaxRetries  int // -1 keeps the SDK default
	Logger      *zap.Logger
}

// NewChat creates an Anthropic chat provider.
func NewChat(cfg *Config) *Chat {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Chat{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// Complete sends the conversation and returns the assistant reply text.
// System messages are folded into the request system prompt.
func (c *Chat) Complete(ctx context.Context, messages []conversation.Message) (string, error) {
	system, turns := splitSystem(messages)
	if len(turns) == 0 {
		return "", fmt.Errorf("conversation has no user turn: %w", domain.ErrInvalidRequest)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  turns,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if c.temperature > 0 {
		params.Temperature = anthropic.Float(float64(c.temperature))
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(provider, c.model, "error").Inc()
		return "", fmt.Errorf("claude API error: %v: %w", err, domain.ErrLLMProviderError)
	}

	metrics.LLMRequestDuration.WithLabelValues(provider, c.model).Observe(duration.Seconds())
	metrics.LLMTokensTotal.WithLabelValues(provider, c.model, "input").Add(float64(resp.Usage.InputTokens))
	metrics.LLMTokensTotal.WithLabelValues(provider, c.model, "output").Add(float64(resp.Usage.OutputTokens))

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(provider, c.model, "error").Inc()
		return "", fmt.Errorf("empty claude response: %w", domain.ErrLLMProviderError)
	}

	metrics.LLMRequestsTotal.WithLabelValues(provider, c.model, "success").Inc()
	c.logger.Debug("Chat completion finished",
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.String("stop_reason", string(resp.StopReason)),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)

	return strings.TrimSpace(text.String()), nil
}

// splitSystem separates system instructions from the dialogue.
// Consecutive messages of the same role are merged into one turn.
func splitSystem(messages []conversation.Message) (string, []anthropic.MessageParam) {
	var system []string
	var turns []anthropic.MessageParam
	var lastRole conversation.Role

	for _, m := range messages {
		if m.Role == conversation.RoleSystem {
			system = append(system, m.Content)
			continue
		}

		role := conversation.RoleUser
		if m.Role == conversation.RoleAssistant {
			role = conversation.RoleAssistant
		}

		block := anthropic.NewTextBlock(m.Content)
		if len(turns) > 0 && role == lastRole {
			last := &turns[len(turns)-1]
			last.Content = append(last.Content, block)
			continue
		}

		if role == conversation.RoleAssistant {
			turns = append(turns, anthropic.NewAssistantMessage(block))
		} else {
			turns = append(turns, anthropic.NewUserMessage(block))
		}
		lastRole = role
	}

	return strings.Join(system, "\n\n"), turns
}
