package ai

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"hallyu-journalist/internal/failure"
)

// OpenAIClient talks to OpenAI or any OpenAI-compatible endpoint (Groq).
type OpenAIClient struct {
	client      *openai.Client
	provider    string
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
}

type Config struct {
	Provider    string // label used in logs, e.g. "groq"
	APIKey      string
	Model       string
	BaseURL     string // optional
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

func newOpenAIClient(apiKey, baseURL string) *openai.Client {
	if baseURL != "" {
		cc := openai.DefaultConfig(apiKey)
		cc.BaseURL = baseURL
		return openai.NewClientWithConfig(cc)
	}
	return openai.NewClient(apiKey)
}

func NewOpenAI(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, failure.Config("openai", "api key missing for provider %q", cfg.Provider)
	}
	if cfg.Model == "" {
		return nil, failure.Config("openai", "model must be specified for provider %q", cfg.Provider)
	}
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	return &OpenAIClient{
		client:      newOpenAIClient(cfg.APIKey, cfg.BaseURL),
		provider:    cfg.Provider,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     defaultTimeout(cfg.Timeout),
	}, nil
}

func (o *OpenAIClient) Name() string { return o.provider + "/" + o.model }

func (o *OpenAIClient) Complete(ctx context.Context, system, user string, wantJSON bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}
	if wantJSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIErr("openai: "+o.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Lister enumerates the models of an OpenAI-compatible provider.
type Lister struct {
	client *openai.Client
}

func NewLister(apiKey, baseURL string) *Lister {
	return &Lister{client: newOpenAIClient(apiKey, baseURL)}
}

func (l *Lister) ListModelIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	list, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, classifyOpenAIErr("openai: list models", err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func classifyOpenAIErr(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return failure.Config(op, "%v", err)
		case http.StatusBadRequest, http.StatusNotFound:
			return failure.Malformed(op, err)
		}
	}
	return failure.Transient(op, err)
}

func defaultTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 60 * time.Second
	}
	return d
}
