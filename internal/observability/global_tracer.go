package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "directed"

var globalTracer trace.Tracer

// InitGlobalTracer initializes the global tracer for the application.
func InitGlobalTracer() {
	globalTracer = otel.Tracer(tracerName)
}

// GetGlobalTracer returns the global tracer instance for the application.
func GetGlobalTracer() trace.Tracer {
	if globalTracer == nil {
		globalTracer = otel.Tracer(tracerName)
	}
	return globalTracer
}

// TraceFunction starts a new span with a descriptive name for the given service and function.
func TraceFunction(ctx context.Context, serviceName, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := GetGlobalTracer()
	spanName := fmt.Sprintf("%s.%s", serviceName, functionName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceAssistantFunction starts a new span for an assistant orchestrator function.
func TraceAssistantFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "assistant", functionName, attributes...)
}

// TraceContentFunction starts a new span for a content generator function.
func TraceContentFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "content", functionName, attributes...)
}

// TraceProfileFunction starts a new span for a profile store function.
func TraceProfileFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "profile", functionName, attributes...)
}

// TraceLLMFunction starts a new span for a language model call.
func TraceLLMFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "llm", functionName, attributes...)
}

// TraceRetrievalFunction starts a new span for a retriever function.
func TraceRetrievalFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "retrieval", functionName, attributes...)
}

// TracePipelineFunction starts a new span for a learning pipeline step.
func TracePipelineFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "pipeline", functionName, attributes...)
}

// TraceHandlerFunction starts a new span for a handler function.
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// TraceDatabaseFunction starts a new span for a database function.
func TraceDatabaseFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "database", functionName, attributes...)
}

// AttributeUserID returns a tracing attribute for a learner ID.
func AttributeUserID(id string) attribute.KeyValue {
	return attribute.String("user.id", id)
}

// AttributeTopic returns a tracing attribute for a content topic.
func AttributeTopic(topic string) attribute.KeyValue {
	return attribute.String("content.topic", topic)
}

// AttributeLevel returns a tracing attribute for a difficulty level.
func AttributeLevel(level string) attribute.KeyValue {
	return attribute.String("content.level", level)
}

// AttributeNumItems returns a tracing attribute for the requested item count.
func AttributeNumItems(n int) attribute.KeyValue {
	return attribute.Int("content.num_items", n)
}

// AttributeContentType returns a tracing attribute for the content or intent type.
func AttributeContentType(contentType interface{}) attribute.KeyValue {
	return attribute.String("content.type", fmt.Sprintf("%v", contentType))
}

// AttributeInstructor returns a tracing attribute for the caller role.
func AttributeInstructor(isInstructor bool) attribute.KeyValue {
	return attribute.Bool("user.is_instructor", isInstructor)
}
