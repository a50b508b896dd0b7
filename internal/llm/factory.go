package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"directed/internal/config"
	"directed/internal/observability"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// mockAnswer is what the mock provider says once nothing is queued
const mockAnswer = "This is a mock response from the tutor."

// NewHTTPClient returns the traced HTTP client shared by provider SDKs
func NewHTTPClient(cfg config.LLMConfig) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   cfg.Timeout,
	}
}

// NewProvider creates a Provider from configuration, wrapped as
// caller → retry → instrumentation → base.
func NewProvider(ctx context.Context, cfg config.LLMConfig, logger *observability.Logger, maxConcurrent int) (Provider, error) {
	var base Provider
	var err error

	httpClient := NewHTTPClient(cfg)

	switch cfg.Provider {
	case config.ProviderGroq:
		base, err = NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: httpClient,
		})
	case config.ProviderOpenAI:
		base, err = NewOpenAIProvider(OpenAIConfig{
			APIKey:       cfg.APIKey,
			Model:        cfg.Model,
			BaseURL:      cfg.BaseURL,
			NativeSchema: cfg.BaseURL == "",
			HTTPClient:   httpClient,
		})
	case config.ProviderAnthropic:
		base, err = NewAnthropicProvider(AnthropicConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: httpClient,
		})
	case config.ProviderGemini:
		base, err = NewGeminiProvider(ctx, GeminiConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: httpClient,
		})
	case config.ProviderMock:
		mock := NewMockProvider()
		mock.Fallback = &MockResponse{Content: json.RawMessage(mockAnswer)}
		base = mock
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	instrumented := WithInstrumentation(base, logger, maxConcurrent)
	return WithRetry(instrumented, RetryConfigFrom(cfg.Retry)), nil
}
