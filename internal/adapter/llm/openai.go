// Package llm adapts hosted chat models to port.LLM.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"coursesearch/config"
	"coursesearch/internal/domain"
	"coursesearch/internal/logging"
	"coursesearch/internal/port"
)

const (
	groqBaseURL   = "https://api.groq.com/openai/v1"
	openAIBaseURL = "https://api.openai.com/v1"
	ollamaBaseURL = "http://localhost:11434/v1"
)

// Client sends chat completions to any OpenAI-compatible endpoint.
type Client struct {
	llm     llms.Model
	model   string
	limiter *rate.Limiter
	logger  *log.Logger
}

// Options tunes a Client.
type Options struct {
	BaseURL           string
	RequestsPerSecond float64 // 0 = unlimited
	Timeout           time.Duration
	Logger            *log.Logger
}

// New builds a client for the configured provider, reading the API key from
// the environment variable named in cfg.
func New(cfg config.LLMConfig, timeout time.Duration, logger *log.Logger) (*Client, error) {
	opts := Options{
		BaseURL:           cfg.BaseURL,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Timeout:           timeout,
		Logger:            logger,
	}

	switch cfg.Provider {
	case "groq":
		if opts.BaseURL == "" {
			opts.BaseURL = groqBaseURL
		}
	case "openai":
		if opts.BaseURL == "" {
			opts.BaseURL = openAIBaseURL
		}
	case "ollama":
		if opts.BaseURL == "" {
			opts.BaseURL = ollamaBaseURL
		}
		// Ollama ignores the token but the client refuses to start without one.
		return NewClient("ollama", cfg.Model, opts)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}

	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", cfg.APIKeyEnv)
	}
	return NewClient(apiKey, cfg.Model, opts)
}

func NewClient(apiKey, model string, opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = openAIBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}

	client, err := openai.New(
		openai.WithBaseURL(opts.BaseURL),
		openai.WithToken(apiKey),
		openai.WithModel(model),
		openai.WithHTTPClient(&http.Client{Timeout: opts.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	c := &Client{
		llm:    client,
		model:  model,
		logger: logging.Component(opts.Logger, "llm"),
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c, nil
}

// Complete sends one system+user exchange and returns the first choice.
// Every failure comes back as a *domain.RemoteModelError.
func (c *Client) Complete(ctx context.Context, req port.CompletionRequest) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &domain.RemoteModelError{Model: c.model, Err: err}
		}
	}

	var content []llms.MessageContent
	if req.System != "" {
		content = append(content, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.System)},
		})
	}
	content = append(content, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(req.User)},
	})

	callOpts := []llms.CallOption{
		llms.WithTemperature(req.Temperature),
		openai.WithLegacyMaxTokensField(),
	}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}

	start := time.Now()
	resp, err := c.llm.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		c.logger.Error("completion failed", "model", c.model, "err", err)
		return "", &domain.RemoteModelError{Model: c.model, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.RemoteModelError{Model: c.model, Err: errors.New("no choices returned")}
	}

	c.logger.Debug("completion", "model", c.model, "elapsed", time.Since(start), "chars", len(resp.Choices[0].Content))
	return resp.Choices[0].Content, nil
}

func (c *Client) ModelName() string {
	return c.model
}
