package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	metricPrefix = "powerdash_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	upstreamFetchTotal   *prometheus.CounterVec
	upstreamFetchLatency *prometheus.HistogramVec

	droppedRecordsTotal *prometheus.CounterVec

	httpRequestsTotal  *prometheus.CounterVec
	httpRequestLatency *prometheus.HistogramVec

	forecastStepTotal   *prometheus.CounterVec
	forecastStepLatency *prometheus.HistogramVec
)

// Init registers the service metrics with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		upstreamFetchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "upstream_fetch_total",
				Help: "Total upstream daily fetches by source and result",
			},
			[]string{"source", "result"},
		)
		upstreamFetchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "upstream_fetch_latency_seconds",
				Help:    "Upstream daily fetch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		)
		droppedRecordsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dropped_records_total",
				Help: "Long-form records dropped before pivoting because of an unparseable timestamp",
			},
			[]string{"source"},
		)
		httpRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total API requests by route and status",
			},
			[]string{"route", "status"},
		)
		httpRequestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_latency_seconds",
				Help:    "API request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		)
		forecastStepTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "forecast_step_total",
				Help: "Total forecast download steps by kind and result",
			},
			[]string{"kind", "result"},
		)
		forecastStepLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "forecast_step_latency_seconds",
				Help:    "Forecast download step latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		)
		prometheus.MustRegister(
			upstreamFetchTotal,
			upstreamFetchLatency,
			droppedRecordsTotal,
			httpRequestsTotal,
			httpRequestLatency,
			forecastStepTotal,
			forecastStepLatency,
		)
	})
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one upstream fetch for a (source, date) pair.
func ObserveFetch(source string, err error, duration time.Duration) {
	if upstreamFetchTotal != nil {
		upstreamFetchTotal.WithLabelValues(source, result(err)).Inc()
	}
	if upstreamFetchLatency != nil {
		upstreamFetchLatency.WithLabelValues(source).Observe(duration.Seconds())
	}
}

// AddDropped counts records discarded for lacking a valid timestamp.
func AddDropped(source string, n int) {
	if n <= 0 || droppedRecordsTotal == nil {
		return
	}
	droppedRecordsTotal.WithLabelValues(source).Add(float64(n))
}

// ObserveRequest records an API request.
func ObserveRequest(route, status string, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequestsTotal != nil {
		httpRequestsTotal.WithLabelValues(route, status).Inc()
	}
	if httpRequestLatency != nil {
		httpRequestLatency.WithLabelValues(route).Observe(duration.Seconds())
	}
}

// ObserveForecastStep records one forecast download step.
func ObserveForecastStep(kind string, err error, duration time.Duration) {
	if forecastStepTotal != nil {
		forecastStepTotal.WithLabelValues(kind, result(err)).Inc()
	}
	if forecastStepLatency != nil {
		forecastStepLatency.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

// PushForecast sends the forecast step series to a Pushgateway under job.
// Batch runs exit before any scrape, so this is how they report.
func PushForecast(ctx context.Context, gatewayURL, job string) error {
	if forecastStepTotal == nil || forecastStepLatency == nil {
		return errors.New("metrics not initialised")
	}
	return push.New(gatewayURL, job).
		Collector(forecastStepTotal).
		Collector(forecastStepLatency).
		PushContext(ctx)
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}
