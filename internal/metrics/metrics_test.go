package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	// given
	reg := prometheus.NewRegistry()
	m := New(reg)

	// when
	m.ProductCreated()
	m.ProductCreated()
	m.OrderPlaced(decimal.RequireFromString("13.91"))
	m.PublishFailed()

	// then
	assert.Equal(t, 2.0, testutil.ToFloat64(m.productsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersPlaced))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.publishFailures))

	expected := `
# HELP ordermanagement_orders_placed_total Total number of orders placed
# TYPE ordermanagement_orders_placed_total counter
ordermanagement_orders_placed_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "ordermanagement_orders_placed_total"))
	count, err := testutil.GatherAndCount(reg, "ordermanagement_order_total_amount")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_RegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := New(reg)
	second := New(reg)

	first.ProductCreated()
	second.ProductCreated()

	assert.Equal(t, 2.0, testutil.ToFloat64(first.productsCreated))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ProductCreated()
		m.OrderPlaced(decimal.NewFromInt(1))
		m.PublishFailed()
	})
}
