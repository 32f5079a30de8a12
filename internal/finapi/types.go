// Package finapi provides a client for the FinSaathi analysis backend.
// All payload normalization (NaN tokens, score objects, "N/A" placeholders,
// mixed date encodings) happens here so callers only see typed models.
package finapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// APIError represents a non-2xx response from the analysis backend.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("analysis API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError is returned when the client-side limiter could not grant a slot.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("analysis API rate limit exceeded, retry after %v", e.RetryAfter)
}

// envelope is the {status, data} wrapper every analysis endpoint returns.
type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type analyzeData struct {
	Symbol         string          `json:"symbol"`
	CompanyName    string          `json:"company_name"`
	HistoricalData []historicalRow `json:"historical_data"`
	Narrative      string          `json:"narrative"`
	Metadata       struct {
		Sector    string `json:"sector"`
		Industry  string `json:"industry"`
		MarketCap Number `json:"market_cap"`
		Currency  string `json:"currency"`
	} `json:"metadata"`
}

// historicalRow uses the indicator frame's column names.
type historicalRow struct {
	Date       Timestamp `json:"Date"`
	Close      Number    `json:"Close"`
	Volume     Number    `json:"Volume"`
	Volatility Number    `json:"Volatility"`
	RSI        Number    `json:"RSI"`
	MACD       Number    `json:"MACD"`
	MA50       Number    `json:"50_MA"`
	MA200      Number    `json:"200_MA"`
}

type detailedData struct {
	Narrative         string `json:"narrative"`
	TechnicalAnalysis struct {
		RiskMetrics map[string]Number `json:"risk_metrics"`
	} `json:"technical_analysis"`
	MonteCarlo *struct {
		ExpectedPrice      Number `json:"expected_price"`
		ConfidenceInterval struct {
			Lower Number `json:"lower"`
			Upper Number `json:"upper"`
		} `json:"confidence_interval"`
	} `json:"monte_carlo"`
}

type confidenceData struct {
	Overall        Number `json:"overall_confidence"`
	Technical      Number `json:"technical_confidence"`
	Statistical    Number `json:"statistical_confidence"`
	Market         Number `json:"market_confidence"`
	Interpretation string `json:"interpretation"`
}

type backtestData struct {
	Metrics          map[string]Number `json:"metrics"`
	PortfolioHistory []struct {
		Date           Timestamp `json:"date"`
		PortfolioValue Number    `json:"Portfolio_Value"`
	} `json:"portfolio_history"`
}

type searchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Symbol   string `json:"symbol"`
		Name     string `json:"name"`
		Exchange string `json:"exchange"`
		Type     string `json:"type"`
	} `json:"results"`
}

type newsData struct {
	Articles []struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Source      json.RawMessage `json:"source"` // string or {"name": ...}
		PublishedAt string          `json:"publishedAt"`
		Link        string          `json:"link"`
		URL         string          `json:"url"`
		ImageURL    string          `json:"imageUrl"`
		URLToImage  string          `json:"urlToImage"`
	} `json:"articles"`
}

// Number is a leniently decoded numeric field. It accepts a JSON number,
// a numeric string, or an object carrying a "score" member. Anything else
// (null, "N/A", NaN, ±Inf, arrays, booleans) decodes as invalid without error.
type Number struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	s := bytes.TrimSpace(data)
	if len(s) == 0 {
		return nil
	}

	switch s[0] {
	case 'n', 't', 'f', '[':
		return nil
	case '"':
		var str string
		if err := json.Unmarshal(s, &str); err != nil {
			return nil
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			n.set(v)
		}
	case '{':
		var obj struct {
			Score Number `json:"score"`
		}
		if err := json.Unmarshal(s, &obj); err == nil {
			*n = obj.Score
		}
	default:
		if v, err := strconv.ParseFloat(string(s), 64); err == nil {
			n.set(v)
		}
	}
	return nil
}

func (n *Number) set(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	n.Value = v
	n.Valid = true
}

// Or returns the value, or def when invalid.
func (n Number) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}

// Ptr returns a pointer to the value, or nil when invalid.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// timestampLayouts covers ISO dates, RFC1123 (Flask's jsonify) and pandas' default string form.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
}

// Timestamp decodes a date string in any of timestampLayouts or an epoch in milliseconds.
// Unparseable values leave the zero time.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	s := bytes.TrimSpace(data)
	if len(s) == 0 || s[0] == 'n' {
		return nil
	}

	if s[0] != '"' {
		if ms, err := strconv.ParseFloat(string(s), 64); err == nil {
			t.Time = time.UnixMilli(int64(ms)).UTC()
		}
		return nil
	}

	var str string
	if err := json.Unmarshal(s, &str); err != nil {
		return nil
	}
	t.Time = parseTimestamp(str)
	return nil
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
