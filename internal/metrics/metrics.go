// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bricolage"

// Metrics holds the collectors of one registry. A nil *Metrics is a no-op.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	stockMovements  *prometheus.CounterVec
	stockRejected   prometheus.Counter
	vendasFinalized prometheus.Counter
	revenueTotal    prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		stockMovements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stock_movements_total",
				Help:      "Accepted stock movements by type",
			},
			[]string{"movimento"},
		),
		stockRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_rejected_total",
			Help:      "Stock exits rejected for insufficient stock",
		}),
		vendasFinalized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendas_finalized_total",
			Help:      "Carts checked out",
		}),
		revenueTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendas_revenue_total",
			Help:      "Sum of finalized venda totals",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) StockMovement(movimento string) {
	if m == nil {
		return
	}
	m.stockMovements.WithLabelValues(movimento).Inc()
}

func (m *Metrics) StockRejected() {
	if m == nil {
		return
	}
	m.stockRejected.Inc()
}

func (m *Metrics) VendaFinalized(total float64) {
	if m == nil {
		return
	}
	m.vendasFinalized.Inc()
	m.revenueTotal.Add(total)
}
