package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 1024

// AnthropicGenerator implements Generator using the Anthropic Messages API
type AnthropicGenerator struct {
	client    *anthropic.Client
	model     string
	system    string
	maxTokens int64
}

// NewAnthropic creates a generator with the given API key, model and
// system prompt.
func NewAnthropic(apiKey, model, system string, maxTokens int64) *AnthropicGenerator {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &AnthropicGenerator{
		client:    &client,
		model:     model,
		system:    system,
		maxTokens: maxTokens,
	}
}

// Generate sends the prompt to the model and returns the text of the reply
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: g.system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling anthropic API: %w", err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
