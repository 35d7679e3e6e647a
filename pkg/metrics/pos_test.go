package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
)

func TestPOSMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPOSMetrics(reg)

	metrics.IncScan("matched")
	metrics.IncScan("matched")
	metrics.IncScan("not_found")
	metrics.IncDiscountFailure()
	metrics.IncStaleDiscard()
	metrics.ObserveSale("single", decimal.NewFromInt(1250))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "pos_scans_total", "outcome", "matched"); err != nil {
		t.Fatalf("fetch scans: %v", err)
	} else if got != 2 {
		t.Fatalf("expected matched scans=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "pos_sales_total", "mode", "single"); err != nil {
		t.Fatalf("fetch sales: %v", err)
	} else if got != 1 {
		t.Fatalf("expected sales=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "pos_sale_total_amount"); err != nil {
		t.Fatalf("fetch sale total: %v", err)
	} else if got != 1250 {
		t.Fatalf("expected sale total sum=1250, got %f", got)
	}
}

func TestPOSMetricsNilSafe(t *testing.T) {
	var metrics *POSMetrics
	metrics.IncScan("matched")
	metrics.IncDiscountFailure()
	metrics.IncStaleDiscard()
	metrics.ObserveSale("split", decimal.NewFromInt(10))
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		return metric.GetHistogram().GetSampleSum(), nil
	}
	return 0, fmt.Errorf("histogram %q has no samples", name)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
