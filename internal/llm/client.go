// Package llm talks to the external analysis service. It supports
// OpenAI and Gemini providers behind one interface and rate limits
// outbound requests.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/codescribe/codescribe-go/internal/config"
	apperrors "github.com/codescribe/codescribe-go/internal/errors"
)

// Service is the surface the orchestrator depends on. Analyze sends
// one prompt and returns the raw response text.
type Service interface {
	Analyze(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Provider represents the LLM provider
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

const systemPrompt = `You are a code analysis assistant. Given a structural ` +
	`summary of a source file and summaries of the files it depends on, ` +
	`describe the file. Respond with a single JSON object with keys ` +
	`"purpose" (string), "components" (array of strings), "interactions" ` +
	`(array of strings), and "parameters" (array of strings). No prose ` +
	`outside the JSON object.`

// Client provides multi-provider LLM access with rate limiting.
type Client struct {
	provider     Provider
	openaiClient *openai.Client
	geminiClient *GeminiClient
	limiter      *rate.Limiter
	model        string
	logger       *slog.Logger
}

// NewClient creates an LLM client for the configured provider.
// API keys come from config, which already folds in environment
// variables; keys are never hardcoded.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	logger := slog.Default().With("component", "llm")

	provider := Provider(cfg.API.Provider)
	if provider == "" {
		provider = ProviderOpenAI
	}

	c := &Client{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(cfg.API.RequestsPerSecond), 1),
		model:    cfg.API.Model,
		logger:   logger,
	}

	switch provider {
	case ProviderOpenAI:
		if cfg.API.OpenAIKey == "" {
			return nil, apperrors.ConfigErrorf("openai api key not configured (set OPENAI_API_KEY)")
		}
		if c.model == "" {
			c.model = "gpt-4o-mini"
		}
		c.openaiClient = openai.NewClient(cfg.API.OpenAIKey)
	case ProviderGemini:
		if cfg.API.GeminiKey == "" {
			return nil, apperrors.ConfigErrorf("gemini api key not configured (set GEMINI_API_KEY)")
		}
		if c.model == "" {
			c.model = "gemini-2.0-flash"
		}
		gc, err := NewGeminiClient(ctx, cfg.API.GeminiKey, c.model)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		c.geminiClient = gc
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.API.Provider)
	}

	logger.Info("llm client initialized", "provider", provider, "model", c.model)
	return c, nil
}

// Model returns the model identifier used for fingerprinting.
func (c *Client) Model() string {
	return c.model
}

// Analyze sends one analysis prompt and returns the raw response.
func (c *Client) Analyze(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	switch c.provider {
	case ProviderGemini:
		return c.geminiClient.Complete(ctx, systemPrompt, prompt)
	case ProviderOpenAI:
		return c.completeOpenAI(ctx, prompt)
	default:
		return "", fmt.Errorf("no provider configured")
	}
}

func (c *Client) completeOpenAI(ctx context.Context, userPrompt string) (string, error) {
	resp, err := c.openaiClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		Temperature: 0.1, // Low temperature for consistent output
		MaxTokens:   2000,
	})
	if err != nil {
		// Keep the provider error in the chain so retry classification
		// still sees the underlying status code.
		return "", apperrors.ServiceError(err, "openai completion failed")
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	response := resp.Choices[0].Message.Content
	c.logger.Debug("openai completion",
		"model", c.model,
		"prompt_length", len(userPrompt),
		"response_length", len(response),
		"tokens_used", resp.Usage.TotalTokens,
	)
	return response, nil
}

// Close releases provider resources.
func (c *Client) Close() error {
	if c.geminiClient != nil {
		return c.geminiClient.Close()
	}
	return nil
}
