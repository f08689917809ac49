package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the API.
type Metrics struct {
	// Upstream feed metrics.
	UpstreamRequests *prometheus.CounterVec // labels: outcome={success,http_error,error}
	UpstreamDuration prometheus.Histogram
	FeaturesFetched  prometheus.Histogram

	// HTTP surface metrics.
	HTTPRequests *prometheus.CounterVec   // labels: route, code
	HTTPDuration *prometheus.HistogramVec // labels: route
	RateLimited  prometheus.Counter

	// Account and contact metrics.
	Registrations     prometheus.Counter
	Logins            *prometheus.CounterVec // labels: outcome={success,failure}
	ContactsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all API metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seismic_api",
			Name:      "upstream_requests_total",
			Help:      "Upstream feed requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "seismic_api",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		FeaturesFetched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "seismic_api",
			Name:      "features_fetched",
			Help:      "Number of features returned per upstream fetch.",
			Buckets:   []float64{0, 1, 10, 50, 100, 250, 500, 1000, 5000, 20000},
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seismic_api",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "seismic_api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismic_api",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
		Registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismic_api",
			Name:      "user_registrations_total",
			Help:      "Successful user registrations.",
		}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seismic_api",
			Name:      "user_logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		ContactsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seismic_api",
			Name:      "contact_messages_total",
			Help:      "Contact messages handed to the message broker, by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.FeaturesFetched,
		m.HTTPRequests,
		m.HTTPDuration,
		m.RateLimited,
		m.Registrations,
		m.Logins,
		m.ContactsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		UpstreamRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "seismic_api", Name: "upstream_requests_total"}, []string{"outcome"}),
		UpstreamDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "seismic_api", Name: "upstream_request_duration_seconds"}),
		FeaturesFetched:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "seismic_api", Name: "features_fetched"}),
		HTTPRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "seismic_api", Name: "http_requests_total"}, []string{"route", "code"}),
		HTTPDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "seismic_api", Name: "http_request_duration_seconds"}, []string{"route"}),
		RateLimited:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "seismic_api", Name: "rate_limited_total"}),
		Registrations:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "seismic_api", Name: "user_registrations_total"}),
		Logins:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "seismic_api", Name: "user_logins_total"}, []string{"outcome"}),
		ContactsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "seismic_api", Name: "contact_messages_total"}, []string{"outcome"}),
	}
}
