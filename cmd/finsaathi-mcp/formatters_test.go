package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/finsaathi/internal/models"
)

func TestFormatAnalysis(t *testing.T) {
	marketCap := 2.9e12
	vm := &models.ViewModel{
		Symbol: "AAPL",
		Basic: models.Basic{
			CompanyName: "Apple Inc.",
			Series: []models.PricePoint{
				{Date: time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC), Close: 180, Volume: 1000},
				{Date: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), Close: 189.5, Volume: 52164500},
			},
			Metadata: models.Metadata{MarketCap: &marketCap, Currency: "USD"},
		},
		Backtest: models.Backtest{Metrics: map[string]float64{"sharpe_ratio": 1.23456}},
	}
	view := &models.AnalysisView{ViewModel: vm, Narrative: "Strong quarter."}

	out := formatAnalysis(view)
	assert.Contains(t, out, "## Apple Inc. (AAPL)")
	assert.Contains(t, out, "$189.50")
	assert.Contains(t, out, "52,164,500")
	assert.Contains(t, out, "$2.9T")
	assert.Contains(t, out, "**Confidence:** N/A")
	assert.Contains(t, out, "- Sharpe Ratio: 1.2346")
	assert.True(t, strings.HasSuffix(out, "Strong quarter.\n"))
}

func TestFormatReports(t *testing.T) {
	assert.Equal(t, "No archived reports.\n", formatReports(nil))

	out := formatReports([]*models.Report{{
		ID:        "rpt_1",
		Symbol:    "MSFT",
		Filename:  "FinSaathi_MSFT_Analysis_2025-03-14.pdf",
		Pages:     3,
		CreatedAt: time.Date(2025, 3, 14, 16, 30, 0, 0, time.UTC),
	}})
	assert.Contains(t, out, "| rpt_1 | MSFT | FinSaathi_MSFT_Analysis_2025-03-14.pdf | 3 | 2025-03-14 16:30 |")
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 20, clamp(0, 20, 100))
	assert.Equal(t, 100, clamp(500, 20, 100))
	assert.Equal(t, 7, clamp(7, 20, 100))
}
