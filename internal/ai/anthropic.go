package ai

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"hallyu-journalist/internal/failure"
)

// AnthropicClient completes prompts with a Claude model.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

func NewAnthropic(cfg Config) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, failure.Config("anthropic", "api key missing")
	}
	if cfg.Model == "" {
		return nil, failure.Config("anthropic", "model must be specified")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicClient{client: &client, model: cfg.Model, maxTokens: maxTokens, timeout: defaultTimeout(cfg.Timeout)}, nil
}

func (a *AnthropicClient) Name() string { return "anthropic/" + a.model }

// Complete ignores wantJSON; the prompt itself states the schema.
func (a *AnthropicClient) Complete(ctx context.Context, system, user string, wantJSON bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", failure.Transient("anthropic: "+a.model, err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		b.WriteString(block.Text)
	}
	return b.String(), nil
}
