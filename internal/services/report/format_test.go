package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$189.50", FormatPrice(ptr(189.5), "USD"))
	assert.Equal(t, "$1,234.57", FormatPrice(ptr(1234.567), ""))
	assert.Equal(t, "€99.00", FormatPrice(ptr(99), "eur"))
	assert.Equal(t, "INR 2,850.10", FormatPrice(ptr(2850.1), "INR"))
	assert.Equal(t, NotAvailable, FormatPrice(nil, "USD"))
	assert.Equal(t, NotAvailable, FormatPrice(ptr(math.NaN()), "USD"))
}

func TestFormatVolume(t *testing.T) {
	assert.Equal(t, "52,164,500", FormatVolume(ptr(52164500)))
	assert.Equal(t, "999", FormatVolume(ptr(999)))
	assert.Equal(t, NotAvailable, FormatVolume(nil))
}

func TestFormatCompactCurrency(t *testing.T) {
	tests := []struct {
		value float64
		code  string
		want  string
	}{
		{2.9e12, "USD", "$2.9T"},
		{3e9, "USD", "$3B"},
		{1.25e6, "", "$1.3M"},
		{45300, "USD", "$45.3K"},
		{950, "USD", "$950"},
		{-2.5e9, "USD", "-$2.5B"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCompactCurrency(ptr(tt.value), tt.code))
	}
	assert.Equal(t, NotAvailable, FormatCompactCurrency(nil, "USD"))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "78.5%", FormatPercent(0.785))
	assert.Equal(t, "100.0%", FormatPercent(1))
	assert.Equal(t, "0.0%", FormatPercent(0))
	assert.Equal(t, NotAvailable, FormatPercent(math.Inf(1)))
}

func TestFormatMetric(t *testing.T) {
	assert.Equal(t, "1.2346", FormatMetric(1.23456789))
	assert.Equal(t, "-0.15", FormatMetric(-0.15))
	assert.Equal(t, "12,345.68", FormatMetric(12345.678))
	assert.Equal(t, NotAvailable, FormatMetric(math.NaN()))
}

func TestMetricLabel(t *testing.T) {
	assert.Equal(t, "Sharpe Ratio", MetricLabel("sharpe_ratio"))
	assert.Equal(t, "Max Drawdown", MetricLabel("max-drawdown"))
	assert.Equal(t, "CAGR", MetricLabel("CAGR"))
}
