package otelx

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Options{Enabled: false, Endpoint: "ignored:4317"})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer shutdown(context.Background())

	_, span := Tracer("content").Start(context.Background(), "save")
	defer span.End()
	if !span.SpanContext().IsValid() {
		t.Fatal("disabled tracing should still produce valid span ids for log correlation")
	}

	carrier := propagation.MapCarrier{}
	ctx, s := otel.Tracer("t").Start(context.Background(), "x")
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	s.End()
	if carrier.Get("traceparent") == "" {
		t.Fatal("traceparent not injected; propagator not installed")
	}
}

func TestInit_Enabled_ReturnsPromptly(t *testing.T) {
	// the grpc exporter dials lazily, so an unreachable endpoint must not block
	done := make(chan struct{})
	go func() {
		defer close(done)
		shutdown, err := Init(context.Background(), Options{Enabled: true, Endpoint: "127.0.0.1:1", Insecure: true, Sample: 1})
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = shutdown(ctx)
		}
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Init blocked on an unreachable collector")
	}
}
