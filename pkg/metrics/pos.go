package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// POSMetrics records counters for the checkout engine and scanner pipeline.
// All methods are nil-safe so tests can pass a zero value.
type POSMetrics struct {
	scans            *prometheus.CounterVec
	discountFailures prometheus.Counter
	staleDiscards    prometheus.Counter
	sales            *prometheus.CounterVec
	saleTotal        prometheus.Histogram
}

// NewPOSMetrics registers the POS metrics on the provided registerer.
func NewPOSMetrics(reg prometheus.Registerer) *POSMetrics {
	if reg == nil {
		return &POSMetrics{}
	}
	scans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_scans_total",
		Help: "Barcode scans processed, by resolution outcome.",
	}, []string{"outcome"})
	discountFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_discount_failures_total",
		Help: "Discount evaluations that failed and fell back to no discount.",
	})
	staleDiscards := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_discount_stale_discards_total",
		Help: "Discount responses discarded because the cart changed mid-flight.",
	})
	sales := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_sales_total",
		Help: "Completed sales, by payment mode.",
	}, []string{"mode"})
	saleTotal := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_sale_total_amount",
		Help:    "Grand total of completed sales.",
		Buckets: []float64{100, 500, 1000, 2500, 5000, 10000, 25000, 50000},
	})
	reg.MustRegister(scans, discountFailures, staleDiscards, sales, saleTotal)
	return &POSMetrics{
		scans:            scans,
		discountFailures: discountFailures,
		staleDiscards:    staleDiscards,
		sales:            sales,
		saleTotal:        saleTotal,
	}
}

// IncScan increments the scan counter for the given outcome label.
func (m *POSMetrics) IncScan(outcome string) {
	if m == nil || m.scans == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.scans.WithLabelValues(outcome).Inc()
}

// IncDiscountFailure increments the failed discount evaluation counter.
func (m *POSMetrics) IncDiscountFailure() {
	if m == nil || m.discountFailures == nil {
		return
	}
	m.discountFailures.Inc()
}

// IncStaleDiscard increments the stale discount response counter.
func (m *POSMetrics) IncStaleDiscard() {
	if m == nil || m.staleDiscards == nil {
		return
	}
	m.staleDiscards.Inc()
}

// ObserveSale records one completed sale.
func (m *POSMetrics) ObserveSale(mode string, total decimal.Decimal) {
	if m == nil {
		return
	}
	if m.sales != nil {
		if mode == "" {
			mode = "unknown"
		}
		m.sales.WithLabelValues(mode).Inc()
	}
	if m.saleTotal != nil {
		f, _ := total.Float64()
		m.saleTotal.Observe(f)
	}
}
