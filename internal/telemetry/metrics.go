package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ServerMetrics holds metric instruments for HTTP server telemetry.
type ServerMetrics struct {
	RequestCounter  metric.Int64Counter     // Total HTTP requests
	RequestDuration metric.Float64Histogram // HTTP request latency
	ErrorCounter    metric.Int64Counter     // Total HTTP errors (5xx)
}

// NewServerMetrics creates a new ServerMetrics instance with pre-configured instruments.
func NewServerMetrics() (*ServerMetrics, error) {
	meter := otel.Meter("lavandaria/http")

	requestCounter, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	// Buckets: 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s
	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"http.server.error.count",
		metric.WithDescription("Total number of HTTP server errors (5xx)"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &ServerMetrics{
		RequestCounter:  requestCounter,
		RequestDuration: requestDuration,
		ErrorCounter:    errorCounter,
	}, nil
}

// RecordRequest records an HTTP request with method, route, status, and duration.
func (m *ServerMetrics) RecordRequest(ctx context.Context, method, route, status string, durationMs float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPRoute, route),
		attribute.String(AttrHTTPStatusCode, status),
	)

	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, durationMs, attrs)

	if len(status) > 0 && status[0] == '5' {
		m.ErrorCounter.Add(ctx, 1, attrs)
	}
}

// GatewayMetrics holds instruments for logins, policy decisions and the
// session store.
type GatewayMetrics struct {
	LoginAttempts  metric.Int64Counter
	LoginFailures  metric.Int64Counter
	LoginDuration  metric.Float64Histogram
	Decisions      metric.Int64Counter
	SessionRetries metric.Int64Counter
	SessionErrors  metric.Int64Counter
}

// NewGatewayMetrics creates metric instruments for gateway telemetry.
func NewGatewayMetrics() (*GatewayMetrics, error) {
	meter := otel.Meter("lavandaria/gateway")

	loginAttempts, err := meter.Int64Counter(
		"auth.login.attempt.count",
		metric.WithDescription("Total number of login attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	loginFailures, err := meter.Int64Counter(
		"auth.login.failure.count",
		metric.WithDescription("Total number of rejected logins"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	loginDuration, err := meter.Float64Histogram(
		"auth.login.duration",
		metric.WithDescription("Login duration including password comparison"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(25, 50, 100, 250, 500, 1000, 2500),
	)
	if err != nil {
		return nil, err
	}

	decisions, err := meter.Int64Counter(
		"policy.decision.count",
		metric.WithDescription("Authorization decisions by route and outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter(
		"session.store.retry.count",
		metric.WithDescription("Session store operations retried after a transient failure"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	storeErrors, err := meter.Int64Counter(
		"session.store.unavailable.count",
		metric.WithDescription("Session store operations that exhausted their retries"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &GatewayMetrics{
		LoginAttempts:  loginAttempts,
		LoginFailures:  loginFailures,
		LoginDuration:  loginDuration,
		Decisions:      decisions,
		SessionRetries: retries,
		SessionErrors:  storeErrors,
	}, nil
}

// RecordLogin records a login attempt. outcome is "success", "not_found",
// "bad_password" or "error".
func (g *GatewayMetrics) RecordLogin(ctx context.Context, partition, outcome string, durationMs float64) {
	if g == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrCredentialPartition, partition),
		attribute.String(AttrCredentialOutcome, outcome),
	)
	g.LoginAttempts.Add(ctx, 1, attrs)
	g.LoginDuration.Record(ctx, durationMs, attrs)
	if outcome != "success" {
		g.LoginFailures.Add(ctx, 1, attrs)
	}
}

// RecordDecision records one authorization decision.
func (g *GatewayMetrics) RecordDecision(ctx context.Context, route string, allowed bool, code string) {
	if g == nil {
		return
	}
	g.Decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrPolicyRoute, route),
		attribute.Bool(AttrPolicyAllowed, allowed),
		attribute.String(AttrPolicyCode, code),
	))
}

// RecordSessionRetry counts one retried session store call.
func (g *GatewayMetrics) RecordSessionRetry(ctx context.Context, operation string) {
	if g == nil {
		return
	}
	g.SessionRetries.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrSessionOperation, operation)))
}

// RecordSessionUnavailable counts one session store call that gave up.
func (g *GatewayMetrics) RecordSessionUnavailable(ctx context.Context, operation string) {
	if g == nil {
		return
	}
	g.SessionErrors.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrSessionOperation, operation)))
}

// Common metric attribute keys
const (
	AttrHTTPMethod     = "http.method"
	AttrHTTPRoute      = "http.route"
	AttrHTTPStatusCode = "http.status_code"
)
