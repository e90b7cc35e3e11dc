// Package metrics exposes Prometheus instruments for order management.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics records business events. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ordersPlaced     prometheus.Counter
	productsCreated  prometheus.Counter
	orderTotalAmount prometheus.Histogram
	publishFailures  prometheus.Counter
}

// New registers the instruments with registerer, or with the default registerer when nil.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &Metrics{
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordermanagement_orders_placed_total",
			Help: "Total number of orders placed",
		}),
		productsCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordermanagement_products_created_total",
			Help: "Total number of products created",
		}),
		orderTotalAmount: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ordermanagement_order_total_amount",
			Help:    "Total amount of placed orders",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		}),
		publishFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordermanagement_event_publish_failures_total",
			Help: "Total number of order events that could not be published",
		}),
	}
}

func (m *Metrics) OrderPlaced(total decimal.Decimal) {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.orderTotalAmount.Observe(total.InexactFloat64())
}

func (m *Metrics) ProductCreated() {
	if m == nil {
		return
	}
	m.productsCreated.Inc()
}

func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

// registerCounter reuses an already registered collector so that New can be called more than once per registry.
func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
		panic(fmt.Sprintf("failed to register counter %s: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing
			}
		}
		panic(fmt.Sprintf("failed to register histogram %s: %v", opts.Name, err))
	}
	return collector
}
