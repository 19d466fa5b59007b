package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spanAttrMap(b *SpanAttributeBuilder) map[string]interface{} {
	attrs := make(map[string]interface{})
	for _, attr := range b.Build() {
		attrs[string(attr.Key)] = attr.Value.AsInterface()
	}
	return attrs
}

func TestSpanAttributeBuilder(t *testing.T) {
	builder := NewSpanAttributeBuilder().
		WithTool("search_gmail_messages").
		WithService("gmail").
		WithOperation("search").
		WithAccount("user@example.com").
		WithGeneration("oauth21").
		WithResource("email", "12345").
		WithReadOnly(true)

	attrs := spanAttrMap(builder)
	require.Len(t, attrs, 8)

	assert.Equal(t, "search_gmail_messages", attrs[SpanAttrTool])
	assert.Equal(t, "gmail", attrs[SpanAttrService])
	assert.Equal(t, "search", attrs[SpanAttrOperation])
	assert.Equal(t, "user@example.com", attrs[SpanAttrAccount])
	assert.Equal(t, "oauth21", attrs[SpanAttrGeneration])
	assert.Equal(t, "email", attrs[SpanAttrResourceType])
	assert.Equal(t, "12345", attrs[SpanAttrResourceID])
	assert.Equal(t, true, attrs[SpanAttrReadOnly])
}

func TestSpanAttributeBuilderGeneration(t *testing.T) {
	tests := []struct {
		name       string
		generation string
		want       string
	}{
		{"oauth21", "oauth21", "oauth21"},
		{"legacy", "oauth20", "oauth20"},
		{"empty omitted", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := spanAttrMap(NewSpanAttributeBuilder().WithGeneration(tt.generation))
			if tt.want == "" {
				assert.NotContains(t, attrs, SpanAttrGeneration)
				return
			}
			assert.Equal(t, tt.want, attrs[SpanAttrGeneration])
		})
	}
}

func TestSpanAttributeBuilderOmitsEmptyValues(t *testing.T) {
	builder := NewSpanAttributeBuilder().
		WithTool("test_tool").
		WithAccount("").
		WithGeneration("").
		WithResource("", "")

	assert.Len(t, builder.Build(), 1, "only the tool attribute should remain")
}

// tracingProvider installs an enabled provider so the global tracer used by
// the span helpers is real.
func tracingProvider(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
}

func TestStartSpanHelpers(t *testing.T) {
	tracingProvider(t)
	ctx := context.Background()

	spanCtx, span := StartSpan(ctx, "test-span")
	require.NotNil(t, spanCtx)
	require.NotNil(t, span)
	span.End()

	toolCtx, toolSpan := StartToolSpan(ctx, "search_gmail_messages",
		NewSpanAttributeBuilder().WithGeneration("oauth21").Build()...)
	require.NotNil(t, toolCtx)
	require.NotNil(t, toolSpan)
	toolSpan.End()

	apiCtx, apiSpan := StartGoogleAPISpan(ctx, "gmail", "search")
	require.NotNil(t, apiCtx)
	require.NotNil(t, apiSpan)
	apiSpan.End()
}

func TestSpanStatusHelpers(t *testing.T) {
	tracingProvider(t)

	_, span := StartSpan(context.Background(), "test-span")
	SetSpanError(span, errors.New("test error"))
	SetSpanError(span, nil) // nil error must be safe
	SetSpanSuccess(span)
	AddSpanEvent(span, "test-event")
	span.End()
}

func TestSpanContextAccessorsWithoutSpan(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
	assert.Empty(t, SpanContextString(ctx))
}
