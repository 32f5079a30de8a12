package models

import "time"

// Confidence interpretations used when the upstream score is unusable.
const (
	ConfidenceUnavailable = "No confidence data available"
	ConfidenceLoadError   = "Error loading confidence data"
)

// ViewModel is the merged result of one aggregation run for a symbol.
// It is replaced wholesale on every run and never partially mutated.
type ViewModel struct {
	Symbol     string     `json:"symbol"`
	Basic      Basic      `json:"basic"`
	Detailed   Detailed   `json:"detailed"`
	Confidence Confidence `json:"confidence"`
	Backtest   Backtest   `json:"backtest"`
	Failed     bool       `json:"failed"`
	Error      string     `json:"error,omitempty"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// Basic holds the quick analysis: company identity, price history and metadata.
type Basic struct {
	CompanyName string       `json:"company_name"`
	Series      []PricePoint `json:"historical_data"` // ascending by date
	Narrative   string       `json:"narrative,omitempty"`
	Metadata    Metadata     `json:"metadata"`
}

// PricePoint is one day of the historical series.
// Indicator fields are nil where the upstream had no value (e.g. the MA warm-up window).
type PricePoint struct {
	Date       time.Time `json:"date"`
	Close      float64   `json:"close"`
	Volume     float64   `json:"volume"`
	Volatility *float64  `json:"volatility,omitempty"`
	RSI        *float64  `json:"rsi,omitempty"`
	MACD       *float64  `json:"macd,omitempty"`
	MA50       *float64  `json:"ma_50,omitempty"`
	MA200      *float64  `json:"ma_200,omitempty"`
}

// Metadata describes the company. MarketCap is nil when the upstream sent "N/A".
type Metadata struct {
	Sector    string   `json:"sector,omitempty"`
	Industry  string   `json:"industry,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	Currency  string   `json:"currency,omitempty"`
}

// Detailed holds the long-form LLM narrative and risk figures.
type Detailed struct {
	Narrative   string             `json:"narrative,omitempty"`
	RiskMetrics map[string]float64 `json:"risk_metrics,omitempty"`
	MonteCarlo  *MonteCarlo        `json:"monte_carlo,omitempty"`
}

// MonteCarlo is the simulated price outlook.
type MonteCarlo struct {
	ExpectedPrice float64 `json:"expected_price"`
	Lower         float64 `json:"lower"`
	Upper         float64 `json:"upper"`
}

// Confidence scores are always finite and within [0,1].
// Available is false for the fallback object built when the upstream failed.
type Confidence struct {
	Overall        float64 `json:"overall"`
	Technical      float64 `json:"technical"`
	Statistical    float64 `json:"statistical"`
	Market         float64 `json:"market"`
	Interpretation string  `json:"interpretation"`
	Available      bool    `json:"available"`
}

// FallbackConfidence returns the zero-score confidence object carrying interpretation.
func FallbackConfidence(interpretation string) Confidence {
	return Confidence{Interpretation: interpretation}
}

// Backtest holds the strategy simulation results.
type Backtest struct {
	InitialCapital   float64            `json:"initial_capital"`
	Metrics          map[string]float64 `json:"metrics,omitempty"`
	PortfolioHistory []PortfolioPoint   `json:"portfolio_history,omitempty"`
}

// PortfolioPoint is one day of simulated portfolio value.
type PortfolioPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Latest returns the most recent price point, or nil for an empty series.
func (b Basic) Latest() *PricePoint {
	if len(b.Series) == 0 {
		return nil
	}
	return &b.Series[len(b.Series)-1]
}

// NarrativeText returns the detailed narrative, falling back to the quick one.
func (vm *ViewModel) NarrativeText() string {
	if vm.Detailed.Narrative != "" {
		return vm.Detailed.Narrative
	}
	return vm.Basic.Narrative
}

// Headline is a dashboard metric card: the latest value and its change
// against the previous observation in percent.
type Headline struct {
	Value     float64 `json:"value"`
	ChangePct float64 `json:"change_pct"`
	Available bool    `json:"available"`
}

// AnalysisView is the API representation of a committed ViewModel.
type AnalysisView struct {
	*ViewModel
	Generation    uint64   `json:"generation"`
	Price         Headline `json:"price"`
	Volume        Headline `json:"volume"`
	Narrative     string   `json:"narrative"`
	AnalysisSteps string   `json:"analysis_steps,omitempty"`
}

// SymbolMatch is one symbol search result.
type SymbolMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange,omitempty"`
	Type     string `json:"type,omitempty"`
}
