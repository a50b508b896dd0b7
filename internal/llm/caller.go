package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"directed/internal/config"
)

const sentinelPrefix = "[LLM or Chain error: "

// Sentinel renders err as the in-band error text returned to chat clients
func Sentinel(err error) string {
	msg := "No response from LLM"
	if err != nil && !errors.Is(err, ErrEmptyResponse) {
		msg = err.Error()
	}
	return sentinelPrefix + msg + "]"
}

// IsSentinel reports whether text is an in-band model failure
func IsSentinel(text string) bool {
	return strings.HasPrefix(text, sentinelPrefix)
}

// Caller is the single entry point services use to talk to the model.
type Caller struct {
	provider    Provider
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// NewCaller binds a provider to the configured sampling settings
func NewCaller(p Provider, cfg config.LLMConfig) *Caller {
	return &Caller{
		provider:    p,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}
}

// ModelID returns the underlying model, or "" for a nil caller
func (c *Caller) ModelID() string {
	if c == nil || c.provider == nil {
		return ""
	}
	return c.provider.ModelID()
}

// Complete sends prompt as a single user turn and returns the trimmed text.
func (c *Caller) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.generate(ctx, UserPrompt(prompt, c.temperatureOrZero(), c.maxTokensOrZero()))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Generate is Complete for callers that want a string in every case: failures
// come back as sentinel text instead of an error.
func (c *Caller) Generate(ctx context.Context, prompt string) string {
	text, err := c.Complete(ctx, prompt)
	if err != nil {
		return Sentinel(err)
	}
	return text
}

// CompleteJSON requests output matching schema and decodes it into out.
func (c *Caller) CompleteJSON(ctx context.Context, prompt string, schema *Schema, out any) error {
	req := UserPrompt(prompt, c.temperatureOrZero(), c.maxTokensOrZero())
	req.Schema = schema

	resp, err := c.generate(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(StripCodeFences(resp.Text())), out); err != nil {
		return &ErrInvalidResponse{Content: resp.Content, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func (c *Caller) generate(ctx context.Context, req Request) (*Response, error) {
	if c == nil || c.provider == nil {
		return nil, &ErrProviderUnavailable{Err: errors.New("no LLM provider configured")}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.provider.Generate(ctx, req)
}

func (c *Caller) temperatureOrZero() float64 {
	if c == nil {
		return 0
	}
	return c.temperature
}

func (c *Caller) maxTokensOrZero() int {
	if c == nil {
		return 0
	}
	return c.maxTokens
}
