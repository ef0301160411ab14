package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultAnthropicModel     = anthropic.ModelClaudeHaiku4_5_20251001
	DefaultAnthropicMaxTokens = 1024
)

// AnthropicLLMClient implements LLMClient using the Anthropic API at
// temperature zero.
type AnthropicLLMClient struct {
	log       *slog.Logger
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicLLMClient creates a client. With an empty apiKey the SDK reads
// ANTHROPIC_API_KEY from the environment.
func NewAnthropicLLMClient(log *slog.Logger, model anthropic.Model, maxTokens int64, apiKey string, opts ...option.RequestOption) *AnthropicLLMClient {
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultAnthropicMaxTokens
	}
	return &AnthropicLLMClient{
		log:       log,
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Complete sends a prompt to Claude and returns the first text block.
func (c *AnthropicLLMClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()
	c.log.Debug("planner: anthropic call starting", "model", c.model, "maxTokens", c.maxTokens, "userPromptLen", len(userPrompt))

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(0),
		System: []anthropic.TextBlockParam{
			{Type: "text", Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})

	duration := time.Since(start)
	if err != nil {
		c.log.Error("planner: anthropic call failed", "duration", duration, "error", err)
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	c.log.Debug("planner: anthropic call completed", "duration", duration, "stopReason", msg.StopReason)

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("no text content in response")
}
