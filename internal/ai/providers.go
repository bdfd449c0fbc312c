package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"hallyu-journalist/internal/config"
	"hallyu-journalist/internal/failure"
)

// BuildChain constructs the fallback chain from configuration. The returned
// close function releases provider clients that hold connections.
func BuildChain(ctx context.Context, cfg config.LLMConfig) (*Chain, func() error, error) {
	var (
		cs      []Completer
		closers []func() error
	)
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}
	for _, p := range cfg.Providers {
		if p.APIKey == "" {
			slog.Warn("ai: provider skipped, no api key", "provider", p.Name)
			continue
		}
		models := p.Models
		kind := strings.ToLower(p.Kind)
		if kind == "openai" && p.Discover {
			models = DiscoverModels(ctx, NewLister(p.APIKey, p.BaseURL), firstNonEmpty(p.Models, config.DefaultModels))
			slog.Info("ai: model priority", "provider", p.Name, "top", head(models, 3))
		}
		if len(models) == 0 && kind == "openai" {
			models = config.DefaultModels
		}
		for _, m := range models {
			base := Config{
				Provider:    p.Name,
				APIKey:      p.APIKey,
				Model:       m,
				BaseURL:     p.BaseURL,
				Temperature: cfg.Temperature,
				MaxTokens:   cfg.MaxTokens,
				Timeout:     cfg.Timeout,
			}
			switch kind {
			case "openai":
				c, err := NewOpenAI(base)
				if err != nil {
					return nil, closeAll, err
				}
				cs = append(cs, c)
			case "gemini":
				c, err := NewGemini(ctx, base)
				if err != nil {
					return nil, closeAll, err
				}
				closers = append(closers, c.Close)
				cs = append(cs, c)
			case "anthropic":
				c, err := NewAnthropic(base)
				if err != nil {
					return nil, closeAll, err
				}
				cs = append(cs, c)
			default:
				return nil, closeAll, failure.Config("ai", "unknown provider kind %q", p.Kind)
			}
		}
	}
	if len(cs) == 0 {
		return nil, closeAll, failure.Config("ai", "no usable llm models")
	}
	return NewChain(cfg.MaxCalls, cs...), closeAll, nil
}

func firstNonEmpty(a, b []string) []string {
	if len(a) > 0 {
		return a
	}
	return b
}

func head(s []string, n int) []string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
