package metrics

import (
	"io"
	"net/http"
	"strconv"
	"time"

	connecthttp "github.com/abdul-hamid-achik/connect/packages/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// DefaultNamespace prefixes every metric name when none is given.
const DefaultNamespace = "connect"

// Collector counts requests, their durations and their failures. It is safe
// for concurrent use.
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewCollector creates a collector on its own registry.
func NewCollector(namespace string) *Collector {
	return NewCollectorWithRegistry(namespace, prometheus.NewRegistry())
}

// NewCollectorWithRegistry registers the collector's metrics on registry. When
// registry is not also a Gatherer, Handler and WriteText read from the default gatherer.
func NewCollectorWithRegistry(namespace string, registry prometheus.Registerer) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	gatherer, ok := registry.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}

	return &Collector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of requests made, by method and status code",
			},
			[]string{"method", "status_code"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of requests in seconds, including response pretreatment",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "status_code"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of failed requests, by method and failure kind",
			},
			[]string{"method", "kind"},
		),
		gatherer: gatherer,
	}
}

// Observe implements http.Observer. A status code of 0 means no response arrived.
func (c *Collector) Observe(method string, statusCode int, duration time.Duration, err error) {
	if c == nil {
		return
	}

	status := strconv.Itoa(statusCode)
	c.requestsTotal.WithLabelValues(method, status).Inc()
	c.requestDuration.WithLabelValues(method, status).Observe(duration.Seconds())

	if err != nil {
		c.errorsTotal.WithLabelValues(method, connecthttp.Kind(err)).Inc()
	}
}

// Handler serves the collected metrics for scraping.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// WriteText writes every gathered metric family in the Prometheus text format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.gatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
