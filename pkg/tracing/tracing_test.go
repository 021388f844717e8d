package tracing

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan(t *testing.T) {
	t.Run("should be a no-op without a tracer", func(t *testing.T) {
		SetTracer(nil)
		ctx, span := StartSpan(context.Background(), "noop")
		defer span.End()
		assert.Nil(t, GetActiveSpan(ctx))
		assert.Equal(t, "", GetTraceID(ctx))
		assert.Equal(t, "", GetTraceParent(ctx))
	})

	t.Run("should record spans with a tracer", func(t *testing.T) {
		recorder := tracetest.NewSpanRecorder()
		provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		SetTracer(provider.Tracer("test"))
		defer SetTracer(nil)

		ctx, span := StartSpan(context.Background(), "Pipeline.Run")
		assert.NotEmpty(t, GetTraceID(ctx))
		assert.NotEmpty(t, GetSpanID(ctx))
		assert.NotEmpty(t, GetTraceParent(ctx))
		RecordError(span, stderrors.New("boom"))
		span.End()

		ended := recorder.Ended()
		require.Len(t, ended, 1)
		assert.Equal(t, "Pipeline.Run", ended[0].Name())
	})
}

func TestSetup(t *testing.T) {
	ctx := context.Background()

	t.Run("should stay disabled without an endpoint", func(t *testing.T) {
		shutdown, err := Setup(ctx, ProviderConfig{ServiceName: "munger"})
		require.NoError(t, err)
		assert.NoError(t, shutdown(ctx))
	})

	t.Run("should reject unknown protocols", func(t *testing.T) {
		_, err := Setup(ctx, ProviderConfig{ServiceName: "munger", Endpoint: "localhost:4317", Protocol: "carrier-pigeon"})
		assert.ErrorContains(t, err, "carrier-pigeon")
	})

	t.Run("should build an http exporter", func(t *testing.T) {
		exporter, err := newExporter(ctx, ProviderConfig{
			Endpoint: "localhost:4318",
			Protocol: "http",
			Insecure: true,
			Headers:  map[string]string{"x-team": "data"},
		})
		require.NoError(t, err)
		assert.NoError(t, exporter.Shutdown(ctx))
	})

	t.Run("should label the resource with the service and job", func(t *testing.T) {
		res, err := newResource(ProviderConfig{ServiceName: "munger-nightly", Job: "jobs/fish.yaml"})
		require.NoError(t, err)

		name, ok := res.Set().Value(attribute.Key("service.name"))
		require.True(t, ok)
		assert.Equal(t, "munger-nightly", name.AsString())
		job, ok := res.Set().Value(attribute.Key("munger.job"))
		require.True(t, ok)
		assert.Equal(t, "jobs/fish.yaml", job.AsString())

		res, err = newResource(ProviderConfig{ServiceName: "munger"})
		require.NoError(t, err)
		_, ok = res.Set().Value(attribute.Key("munger.job"))
		assert.False(t, ok)
	})
}
