package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"directed/internal/config"
	"directed/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), config.LLMConfig{
		Provider: config.ProviderMock,
		Retry:    config.RetryConfig{MaxAttempts: 1},
	}, observability.NewNopLogger(), 2)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	resp, err := p.Generate(context.Background(), UserPrompt("hi", 0.7, 0))
	require.NoError(t, err)
	assert.Equal(t, mockAnswer, resp.Text())
}

func TestNewProvider_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LLMConfig
		wantErr string
	}{
		{name: "unknown", cfg: config.LLMConfig{Provider: "cohere"}, wantErr: `unknown LLM provider: "cohere"`},
		{name: "groq without key", cfg: config.LLMConfig{Provider: config.ProviderGroq}, wantErr: "initializing groq provider"},
		{name: "anthropic without key", cfg: config.LLMConfig{Provider: config.ProviderAnthropic}, wantErr: "anthropic API key is required"},
		{name: "gemini without key", cfg: config.LLMConfig{Provider: config.ProviderGemini}, wantErr: "gemini API key is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.cfg, nil, 1)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

type countingProvider struct {
	active  atomic.Int32
	peak    atomic.Int32
	release chan struct{}
}

func (c *countingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	n := c.active.Add(1)
	defer c.active.Add(-1)
	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	select {
	case <-c.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &Response{Content: []byte("ok")}, nil
}

func (c *countingProvider) ModelID() string { return "counting" }

func TestInstrumentedProvider_BoundsConcurrency(t *testing.T) {
	inner := &countingProvider{release: make(chan struct{})}
	p := WithInstrumentation(inner, observability.NewNopLogger(), 1)

	done := make(chan error, 2)
	for range 2 {
		go func() {
			_, err := p.Generate(context.Background(), Request{})
			done <- err
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(inner.release)
	require.NoError(t, <-done)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), inner.peak.Load())
}

func TestInstrumentedProvider_WaitRespectsContext(t *testing.T) {
	inner := &countingProvider{release: make(chan struct{})}
	p := WithInstrumentation(inner, nil, 1)

	go func() { _, _ = p.Generate(context.Background(), Request{}) }()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.Generate(ctx, Request{})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	close(inner.release)
}
