// Package metrics exposes Prometheus instrumentation for the API: request
// latency and counts per route, token verification outcomes and JWKS refetches.
package metrics

import (
	"context"
	"net/http"

	"github.com/benvon/login-demo/internal/models"
	"github.com/benvon/login-demo/internal/services/oidc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "login_demo"

// Metrics holds the collectors registered for one server
type Metrics struct {
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	verifications   *prometheus.CounterVec
	jwksRefetches   *prometheus.CounterVec
}

// New registers the API collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Tracks the latencies for HTTP requests.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"code", "handler", "method"},
		),
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Tracks the number of HTTP requests.",
			}, []string{"code", "handler", "method"},
		),
		verifications: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_verifications_total",
				Help:      "Bearer token verifications by result.",
			}, []string{"result"},
		),
		jwksRefetches: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jwks_refetches_total",
				Help:      "Key set refetches triggered by unknown key ids, by outcome.",
			}, []string{"outcome"},
		),
	}
}

// InstrumentHandler records latency and count for requests served by next
func (m *Metrics) InstrumentHandler(handlerName string, next http.Handler) http.Handler {
	labels := prometheus.Labels{"handler": handlerName}
	return promhttp.InstrumentHandlerDuration(
		m.requestDuration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(m.requestsTotal.MustCurryWith(labels), next),
	)
}

// ObserveJWKSRefetch implements oidc.RefetchObserver
func (m *Metrics) ObserveJWKSRefetch(outcome string) {
	m.jwksRefetches.WithLabelValues(outcome).Inc()
}

// TokenVerifier matches the verifier consumed by the auth middleware
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.TokenClaims, error)
}

type instrumentedVerifier struct {
	next    TokenVerifier
	results *prometheus.CounterVec
}

// InstrumentVerifier counts verification results, labelled "ok" or by error code
func (m *Metrics) InstrumentVerifier(next TokenVerifier) TokenVerifier {
	return &instrumentedVerifier{next: next, results: m.verifications}
}

func (v *instrumentedVerifier) Verify(ctx context.Context, token string) (*models.TokenClaims, error) {
	claims, err := v.next.Verify(ctx, token)
	result := "ok"
	if err != nil {
		result = "error"
		if code := oidc.CodeOf(err); code != "" {
			result = string(code)
		}
	}
	v.results.WithLabelValues(result).Inc()
	return claims, err
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
