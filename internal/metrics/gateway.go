package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// GatewayMetrics defines the interface for recording proxy decision metrics.
// Implementations track per-environment request outcomes, authorization
// denials, and upstream latency.
type GatewayMetrics interface {
	// RecordEnvironmentRequest records one proxied request for an environment.
	// Environment is the resolved tenant name (or "UNAUTHORIZED" when token
	// resolution failed), status the final HTTP status returned to the caller.
	RecordEnvironmentRequest(ctx context.Context, environment, method string, status int)

	// RecordDenial records an authorization denial with the reason the
	// decision functions produced (e.g. "zone_not_allowed").
	RecordDenial(ctx context.Context, environment, reason string)

	// RecordUpstreamDuration records the latency of one upstream PowerDNS call.
	RecordUpstreamDuration(ctx context.Context, method string, status int, duration time.Duration)
}

// gatewayMetrics implements GatewayMetrics using OpenTelemetry metrics.
type gatewayMetrics struct {
	requestCounter metric.Int64Counter
	denialCounter  metric.Int64Counter
	upstreamHisto  metric.Float64Histogram
}

// NewGatewayMetrics creates a GatewayMetrics implementation on the provided
// meter provider. The namespace prefixes all metric names.
func NewGatewayMetrics(meterProvider metric.MeterProvider, namespace string) (GatewayMetrics, error) {
	meter := meterProvider.Meter(namespace)

	requestCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_environment_requests_total", namespace),
		metric.WithDescription("Total number of proxied requests per environment"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create environment request counter: %w", err)
	}

	denialCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_authorization_denials_total", namespace),
		metric.WithDescription("Total number of requests denied by policy"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create denial counter: %w", err)
	}

	upstreamHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_upstream_request_duration_seconds", namespace),
		metric.WithDescription("Duration of upstream PowerDNS API calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream duration histogram: %w", err)
	}

	return &gatewayMetrics{
		requestCounter: requestCounter,
		denialCounter:  denialCounter,
		upstreamHisto:  upstreamHisto,
	}, nil
}

func (g *gatewayMetrics) RecordEnvironmentRequest(ctx context.Context, environment, method string, status int) {
	g.requestCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("environment", environment),
			attribute.String("method", method),
			attribute.Int("status_code", status),
		),
	)
}

func (g *gatewayMetrics) RecordDenial(ctx context.Context, environment, reason string) {
	g.denialCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("environment", environment),
			attribute.String("reason", reason),
		),
	)
}

func (g *gatewayMetrics) RecordUpstreamDuration(ctx context.Context, method string, status int, duration time.Duration) {
	g.upstreamHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.Int("status_code", status),
		),
	)
}

// NoOpGatewayMetrics is used when metrics are disabled.
type NoOpGatewayMetrics struct{}

// NewNoOpGatewayMetrics creates a no-op GatewayMetrics implementation.
func NewNoOpGatewayMetrics() GatewayMetrics {
	return &NoOpGatewayMetrics{}
}

// RecordEnvironmentRequest does nothing when metrics are disabled.
func (n *NoOpGatewayMetrics) RecordEnvironmentRequest(ctx context.Context, environment, method string, status int) {
	// No-op
}

// RecordDenial does nothing when metrics are disabled.
func (n *NoOpGatewayMetrics) RecordDenial(ctx context.Context, environment, reason string) {
	// No-op
}

// RecordUpstreamDuration does nothing when metrics are disabled.
func (n *NoOpGatewayMetrics) RecordUpstreamDuration(ctx context.Context, method string, status int, duration time.Duration) {
	// No-op
}
