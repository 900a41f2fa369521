// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

// Package llm wraps the OpenAI API for the two narrow jobs the engine
// delegates to a language model: translating Ukrainian hints into
// English search keywords, and writing a one-sentence match
// explanation. Every caller treats this package as best-effort; errors
// here must never fail a recommendation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/okhomenko/moodflick/internal/metrics"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("llm: disabled")

// Config controls the OpenAI client.
type Config struct {
	// APIKey enables the client; empty disables all LLM features.
	APIKey string `koanf:"api_key" json:"-"`

	// BaseURL overrides the API endpoint, e.g. for a proxy.
	BaseURL string `koanf:"base_url" json:"base_url"`

	// Model is the chat model used for both jobs.
	Model string `koanf:"model" json:"model"`

	// Timeout bounds each request.
	Timeout time.Duration `koanf:"timeout" json:"timeout"`

	// RequestsPerMinute throttles outbound calls.
	RequestsPerMinute int `koanf:"requests_per_minute" json:"requests_per_minute"`
}

// DefaultConfig returns production defaults. The client stays disabled
// until an API key is set.
func DefaultConfig() Config {
	return Config{
		Model:             "gpt-4o-mini",
		Timeout:           10 * time.Second,
		RequestsPerMinute: 60,
	}
}

// Validate checks configuration bounds.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("requests_per_minute must be positive, got %d", c.RequestsPerMinute)
	}
	return nil
}

// Client is a rate-limited, circuit-broken OpenAI client.
type Client struct {
	cfg     Config
	api     openai.Client
	breaker *gobreaker.CircuitBreaker[string]
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient creates an LLM client. A client with no API key is valid
// but returns ErrDisabled from every call.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid llm config: %w", err)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "openai",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		cfg:     cfg,
		api:     openai.NewClient(opts...),
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute),
		logger:  logger.With().Str("component", "llm").Logger(),
	}, nil
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// generate runs one chat completion through the rate limiter and
// circuit breaker.
func (c *Client) generate(ctx context.Context, system, user string, maxTokens int64, temperature float64) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	return c.breaker.Execute(func() (string, error) {
		completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(c.cfg.Model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(system),
				openai.UserMessage(user),
			},
			MaxTokens:   openai.Int(maxTokens),
			Temperature: openai.Float(temperature),
		})
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("chat completion returned no choices")
		}
		return completion.Choices[0].Message.Content, nil
	})
}

// TranslateHintKeywords extracts bilingual search keywords from a
// Ukrainian hint. Returns the keywords lowercased; an empty slice on
// empty input.
func (c *Client) TranslateHintKeywords(ctx context.Context, hint string) ([]string, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return nil, nil
	}

	response, err := c.generate(ctx,
		"Extract search keywords from a Ukrainian movie/series request. "+
			"Return keywords in BOTH Ukrainian and English, comma-separated. "+
			"Include: actor/director names, genres, themes, settings. "+
			"Return ONLY comma-separated keywords, nothing else.",
		hint, 100, 0.2)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("translate_hint", "error").Inc()
		return nil, err
	}
	metrics.LLMRequestsTotal.WithLabelValues("translate_hint", "ok").Inc()

	var keywords []string
	for _, part := range strings.Split(response, ",") {
		if kw := strings.ToLower(strings.TrimSpace(part)); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords, nil
}

// overviewLimit caps how much of the item overview is sent along.
const overviewLimit = 600

// ExplainMatch writes one short Ukrainian sentence on why the item
// matches the user's hint.
func (c *Client) ExplainMatch(ctx context.Context, hint, title, overview string) (string, error) {
	if runes := []rune(overview); len(runes) > overviewLimit {
		overview = string(runes[:overviewLimit])
	}

	response, err := c.generate(ctx,
		"You are a movie/series recommendation assistant. "+
			"In ONE short sentence in Ukrainian (max 120 chars), explain why the film/series "+
			"matches the user's request. Be specific and concrete. No spoilers.",
		fmt.Sprintf("User request: %s\nFilm/series: %s\nDescription: %s", hint, title, overview),
		80, 0.3)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("explain_match", "error").Inc()
		return "", err
	}
	metrics.LLMRequestsTotal.WithLabelValues("explain_match", "ok").Inc()
	return strings.TrimSpace(response), nil
}
