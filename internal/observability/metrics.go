package observability

import (
	"context"

	"directed/internal/config"
	contextutils "directed/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes an OpenTelemetry MeterProvider with an OTLP exporter
func InitMetrics(cfg *config.OpenTelemetryConfig) (result0 *metric.MeterProvider, err error) {
	ctx := context.Background()

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var exporter metric.Exporter
	switch cfg.Protocol {
	case "grpc", "":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp grpc metric exporter: %w", err)
		}
		exporter = exp
	case "http":
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp http metric exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unsupported otel protocol: %s", cfg.Protocol)
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithResource(res),
	)
	return mp, nil
}

// AssistantMetrics holds the counters recorded by the assistant services
type AssistantMetrics struct {
	requests       otelmetric.Int64Counter
	profileLogs    otelmetric.Int64Counter
	generationErrs otelmetric.Int64Counter
}

// NewAssistantMetrics registers the assistant instruments on the given meter provider.
// A nil provider falls back to the global one, which is a no-op until InitMetrics runs.
func NewAssistantMetrics(mp otelmetric.MeterProvider) (*AssistantMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter("directed/assistant")

	requests, err := meter.Int64Counter("assistant.requests",
		otelmetric.WithDescription("Assistant requests by content type and outcome"))
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create requests counter: %w", err)
	}
	profileLogs, err := meter.Int64Counter("assistant.profile_logs",
		otelmetric.WithDescription("Profile logging attempts by result"))
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create profile log counter: %w", err)
	}
	generationErrs, err := meter.Int64Counter("assistant.generation_errors",
		otelmetric.WithDescription("Content generation failures by kind"))
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create generation error counter: %w", err)
	}

	return &AssistantMetrics{requests: requests, profileLogs: profileLogs, generationErrs: generationErrs}, nil
}

// RecordRequest counts one orchestrator run
func (m *AssistantMetrics) RecordRequest(ctx context.Context, contentType string, ok bool) {
	if m == nil {
		return
	}
	m.requests.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("content_type", contentType),
		attribute.Bool("ok", ok),
	))
}

// RecordProfileLog counts one profile logging attempt
func (m *AssistantMetrics) RecordProfileLog(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.profileLogs.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("result", result)))
}

// RecordGenerationError counts one content generation failure
func (m *AssistantMetrics) RecordGenerationError(ctx context.Context, kind, code string) {
	if m == nil {
		return
	}
	m.generationErrs.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("code", code),
	))
}
