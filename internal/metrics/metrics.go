package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for inbound HTTP requests and
// collection runs.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	runTotal        *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	itemsCollected  *prometheus.CounterVec
	quotaExhausted  prometheus.Counter
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sectorpulse",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sectorpulse",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	runTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sectorpulse",
		Subsystem: "collection",
		Name:      "runs_total",
		Help:      "Total number of collection runs by type and outcome.",
	}, []string{"type", "status"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sectorpulse",
		Subsystem: "collection",
		Name:      "run_duration_seconds",
		Help:      "Duration distribution for collection runs.",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
	}, []string{"type"})

	itemsCollected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sectorpulse",
		Subsystem: "collection",
		Name:      "items_total",
		Help:      "Total number of newly stored items by type.",
	}, []string{"type"})

	quotaExhausted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sectorpulse",
		Subsystem: "collection",
		Name:      "quota_exhausted_total",
		Help:      "Times the bidding provider reported an exhausted quota.",
	})

	for _, c := range []prometheus.Collector{
		requestDuration, requestTotal, runTotal, runDuration, itemsCollected, quotaExhausted,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		runTotal:        runTotal,
		runDuration:     runDuration,
		itemsCollected:  itemsCollected,
		quotaExhausted:  quotaExhausted,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// ObserveRun records the outcome and duration of one collection run.
func (c *Collector) ObserveRun(runType, status string, duration time.Duration, items int) {
	c.runTotal.WithLabelValues(runType, status).Inc()
	c.runDuration.WithLabelValues(runType).Observe(duration.Seconds())
	if items > 0 {
		c.itemsCollected.WithLabelValues(runType).Add(float64(items))
	}
}

// ObserveQuotaExhausted records a quota-exhaustion signal from the bidding
// provider.
func (c *Collector) ObserveQuotaExhausted() {
	c.quotaExhausted.Inc()
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
