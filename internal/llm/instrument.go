package llm

import (
	"context"
	"time"

	"directed/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// InstrumentedProvider traces and logs each model call and bounds how many run at once.
type InstrumentedProvider struct {
	inner  Provider
	logger *observability.Logger
	sem    chan struct{}
}

// WithInstrumentation wraps p. maxConcurrent <= 0 disables the concurrency bound.
func WithInstrumentation(p Provider, logger *observability.Logger, maxConcurrent int) *InstrumentedProvider {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	ip := &InstrumentedProvider{inner: p, logger: logger}
	if maxConcurrent > 0 {
		ip.sem = make(chan struct{}, maxConcurrent)
	}
	return ip
}

func (p *InstrumentedProvider) Generate(ctx context.Context, req Request) (resp *Response, err error) {
	purpose := PurposeFrom(ctx)
	ctx, span := observability.TraceLLMFunction(ctx, "generate",
		attribute.String("llm.model", p.inner.ModelID()),
		attribute.String("llm.purpose", purpose),
		attribute.Bool("llm.structured", req.Schema != nil),
	)
	defer observability.FinishSpan(span, &err)

	if p.sem != nil {
		select {
		case p.sem <- struct{}{}:
			defer func() { <-p.sem }()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	start := time.Now()
	resp, err = p.inner.Generate(ctx, req)
	fields := map[string]interface{}{
		"model":      p.inner.ModelID(),
		"purpose":    purpose,
		"latency_ms": time.Since(start).Milliseconds(),
	}

	if err != nil {
		p.logger.Warn(ctx, "LLM request failed", fields, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	fields["input_tokens"] = resp.Usage.InputTokens
	fields["output_tokens"] = resp.Usage.OutputTokens
	span.SetAttributes(
		attribute.Int("llm.input_tokens", resp.Usage.InputTokens),
		attribute.Int("llm.output_tokens", resp.Usage.OutputTokens),
	)
	p.logger.Debug(ctx, "LLM request completed", fields)
	return resp, nil
}

func (p *InstrumentedProvider) ModelID() string {
	return p.inner.ModelID()
}
