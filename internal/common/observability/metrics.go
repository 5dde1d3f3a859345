package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"

	"crm-gateway/internal/common/logger"
)

// Observability records CRM call metrics through an OpenTelemetry meter
// exported in Prometheus format, and opens spans around those calls.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracer         trace.Tracer
	remoteCalls    otelmetric.Int64Counter
	remoteDuration otelmetric.Float64Histogram
}

// New registers the exporter with the default Prometheus registry.
func New(serviceName string, log logger.Logger) *Observability {
	return NewWithRegisterer(serviceName, promclient.DefaultRegisterer, log)
}

func NewWithRegisterer(serviceName string, reg promclient.Registerer, log logger.Logger) *Observability {
	tracer := otel.Tracer(serviceName)

	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		if log != nil {
			log.Error("Failed to create Prometheus exporter", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return &Observability{tracer: tracer}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	remoteCalls, _ := meter.Int64Counter(
		"crm.remote.calls",
		otelmetric.WithDescription("Number of calls made to the CRM API"),
	)

	remoteDuration, _ := meter.Float64Histogram(
		"crm.remote.duration",
		otelmetric.WithDescription("CRM API call duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:  provider,
		tracer:         tracer,
		remoteCalls:    remoteCalls,
		remoteDuration: remoteDuration,
	}
}

// StartRemoteSpan opens a client span for one CRM operation.
func (o *Observability) StartRemoteSpan(ctx context.Context, operation, object string) (context.Context, trace.Span) {
	tracer := otel.Tracer("crm-gateway")
	if o != nil && o.tracer != nil {
		tracer = o.tracer
	}
	return tracer.Start(ctx, "crm."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("crm.operation", operation),
			attribute.String("crm.object", object),
		),
	)
}

// EndRemoteSpan marks the span failed when err is set and ends it.
func EndRemoteSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (o *Observability) RecordRemoteCall(ctx context.Context, operation, object, result string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("object", object),
		attribute.String("result", result),
	)
	if o.remoteCalls != nil {
		o.remoteCalls.Add(ctx, 1, attrs)
	}
	if o.remoteDuration != nil {
		o.remoteDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	if o != nil && o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
