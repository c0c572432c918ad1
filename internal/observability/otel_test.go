package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tbourn/go-art-booking/internal/config"
)

func preserveOTelGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func enabled(name string) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    true,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1.0,
	}
}

var build = BuildInfo{Version: "v1.2.3", Environment: "test"}

func TestSetup_Disabled_NoOp(t *testing.T) {
	preserveOTelGlobals(t)
	prev := otel.GetTracerProvider()

	cfg := enabled("svc")
	cfg.Enabled = false
	shutdown, err := Setup(context.Background(), cfg, build)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
	if otel.GetTracerProvider() != prev {
		t.Fatalf("disabled setup must not replace the tracer provider")
	}
}

func TestSetup_SetsProviderAndPropagator(t *testing.T) {
	for _, insecure := range []bool{true, false} {
		preserveOTelGlobals(t)
		cfg := enabled("svc-booking")
		cfg.Insecure = insecure

		shutdown, err := Setup(context.Background(), cfg, build)
		if err != nil {
			t.Fatalf("insecure=%v: unexpected err: %v", insecure, err)
		}
		if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
			t.Fatalf("expected *sdktrace.TracerProvider")
		}

		ctx, span := otel.Tracer("test").Start(context.Background(), "Submit")
		carrier := propagation.MapCarrier{}
		otel.GetTextMapPropagator().Inject(ctx, carrier)
		span.End()
		if !strings.HasPrefix(carrier.Get("traceparent"), "00-") {
			t.Fatalf("traceparent not injected: %v", carrier)
		}

		ct, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		_ = shutdown(ct)
		cancel()
	}
}

func TestSetup_CanceledContext_StillSucceeds(t *testing.T) {
	preserveOTelGlobals(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // exporter creation is lazy

	shutdown, err := Setup(ctx, enabled("svc-canceled"), build)
	if err != nil {
		t.Fatalf("unexpected err with canceled ctx: %v", err)
	}
	_ = shutdown(context.Background())
}

func TestSetup_SeamErrors_LeaveGlobalsIntact(t *testing.T) {
	t.Run("exporter", func(t *testing.T) {
		preserveOTelGlobals(t)
		orig := newOTLPExporterFn
		t.Cleanup(func() { newOTLPExporterFn = orig })
		newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
			return nil, errors.New("boom-exporter")
		}
		assertSetupFails(t)
	})
	t.Run("resource", func(t *testing.T) {
		preserveOTelGlobals(t)
		orig := newServiceResourceFn
		t.Cleanup(func() { newServiceResourceFn = orig })
		newServiceResourceFn = func(context.Context, string, BuildInfo) (*resource.Resource, error) {
			return nil, errors.New("boom-resource")
		}
		assertSetupFails(t)
	})
}

func assertSetupFails(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()

	if _, err := Setup(context.Background(), enabled("svc"), build); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatalf("tracer provider changed on failure")
	}
	if otel.GetTextMapPropagator() != prevProp {
		t.Fatalf("propagator changed on failure")
	}
}

func TestResource_CarriesBuildInfo(t *testing.T) {
	res, err := newServiceResourceFn(context.Background(), "art", build)
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	got := map[string]string{}
	for _, kv := range res.Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	if got["service.name"] != "art" || got["service.version"] != "v1.2.3" || got["deployment.environment"] != "test" {
		t.Fatalf("resource attributes unexpected: %v", got)
	}
}

func Test_sampler(t *testing.T) {
	cases := map[float64]string{
		1:    "AlwaysOnSampler",
		0:    "AlwaysOffSampler",
		0.25: "TraceIDRatioBased",
	}
	for ratio, want := range cases {
		if d := sampler(ratio).Description(); !strings.Contains(d, want) {
			t.Fatalf("sampler(%v) = %q, want it to mention %q", ratio, d, want)
		}
	}
}
