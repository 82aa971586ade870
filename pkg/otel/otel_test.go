package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	amqp "github.com/rabbitmq/amqp091-go"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func startSpan(t *testing.T) (context.Context, trace.SpanContext) {
	t.Helper()
	InstallPropagator()
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	t.Cleanup(func() { span.End() })
	return ctx, span.SpanContext()
}

func TestTraceContextSurvivesJSON(t *testing.T) {
	ctx, sc := startSpan(t)

	data := MarshalTraceContext(ctx)
	require.Contains(t, data, "traceparent")

	restored := trace.SpanContextFromContext(ContextWithTraceContext(context.Background(), data))
	assert.Equal(t, sc.TraceID(), restored.TraceID())
	assert.Equal(t, sc.SpanID(), restored.SpanID())
	assert.True(t, restored.IsRemote())
}

func TestMarshalTraceContext_NoSpan(t *testing.T) {
	InstallPropagator()
	assert.Empty(t, MarshalTraceContext(context.Background()))
}

func TestContextWithTraceContext_BadInputKeepsParent(t *testing.T) {
	parent := context.WithValue(context.Background(), struct{}{}, "marker")

	for _, data := range []string{"", "not json"} {
		ctx := ContextWithTraceContext(parent, data)
		assert.Equal(t, "marker", ctx.Value(struct{}{}))
		assert.False(t, trace.SpanContextFromContext(ctx).IsValid())
	}
}

func TestAMQPHeadersCarrier(t *testing.T) {
	ctx, sc := startSpan(t)
	headers := amqp.Table{"x-event-id": "abc", "x-retry": int32(2)}

	InjectInto(ctx, headers)
	c := AMQPHeadersCarrier(headers)
	assert.NotEmpty(t, c.Get("traceparent"))
	assert.Empty(t, c.Get("x-retry"), "non-string values are ignored")
	assert.Contains(t, c.Keys(), "x-event-id")

	restored := trace.SpanContextFromContext(ExtractFrom(context.Background(), headers))
	assert.Equal(t, sc.TraceID(), restored.TraceID())
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(0).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}
