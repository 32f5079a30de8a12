package finapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/metrics"
	"github.com/ternarybob/finsaathi/internal/models"
)

const (
	// DefaultBaseURL is the base URL of a locally running analysis backend.
	DefaultBaseURL = "http://localhost:5000"

	// DefaultTimeout is the default HTTP timeout. Analysis calls wait on an LLM.
	DefaultTimeout = 120 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10

	// DefaultInitialCapital is the backtest starting capital when none is configured.
	DefaultInitialCapital = 100000.0
)

// Upstream endpoints.
const (
	EndpointAnalyze    = "/api/analyze"
	EndpointDetailed   = "/api/financial/analyze"
	EndpointConfidence = "/api/financial/confidence"
	EndpointBacktest   = "/api/financial/backtest"
	EndpointSearch     = "/api/symbols/search"
	EndpointNews       = "/api/news"
)

// Client is an analysis backend client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	breakers   *BreakerRegistry
	metrics    *metrics.Metrics
}

var _ interfaces.AnalysisClient = (*Client)(nil)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithMetrics records request counts and durations.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithBreaker guards every endpoint with its own circuit breaker.
func WithBreaker(config BreakerConfig) ClientOption {
	return func(c *Client) {
		c.breakers = NewBreakerRegistry(config, c.logger, c.metrics)
	}
}

// NewClient creates a new analysis backend client.
// WithBreaker should come after WithLogger and WithMetrics so the breakers report through them.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BreakerStatus returns the state of every breaker used so far (nil without breakers).
func (c *Client) BreakerStatus() map[string]BreakerStatus {
	if c.breakers == nil {
		return nil
	}
	return c.breakers.Status()
}

// do performs one request and returns the raw 2xx body.
func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, payload interface{}) ([]byte, error) {
	var body []byte
	call := func() error {
		var err error
		body, err = c.roundTrip(ctx, method, endpoint, params, payload)
		return err
	}

	if c.breakers == nil {
		return body, call()
	}
	return body, c.breakers.Execute(ctx, endpoint, call)
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, params url.Values, payload interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &RateLimitError{RetryAfter: time.Second}
	}

	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", common.UserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("method", method).
			Str("url", c.baseURL+endpoint).
			Msg("Analysis API request")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstream(endpoint, "error", time.Since(start))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metrics.RecordUpstream(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body, resp.Status),
			Endpoint:   endpoint,
		}
	}

	return body, nil
}

// errorMessage extracts the backend's {"message": ...} when present.
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" && len(trimmed) < 200 {
		return trimmed
	}
	return fallback
}

// postEnvelope POSTs payload and decodes the {status, data} envelope into data.
func postEnvelope[T any](ctx context.Context, c *Client, endpoint string, payload interface{}) (*T, error) {
	body, err := c.do(ctx, http.MethodPost, endpoint, nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[T](body, endpoint)
}

func decodeEnvelope[T any](body []byte, endpoint string) (*T, error) {
	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	if strings.EqualFold(env.Status, "error") {
		return nil, &APIError{StatusCode: http.StatusOK, Message: env.Message, Endpoint: endpoint}
	}
	return &env.Data, nil
}

type symbolRequest struct {
	Symbol string `json:"symbol"`
}

// Analyze retrieves the quick analysis with price history, sorted ascending by date.
func (c *Client) Analyze(ctx context.Context, symbol string) (*models.Basic, error) {
	data, err := postEnvelope[analyzeData](ctx, c, EndpointAnalyze, symbolRequest{Symbol: symbol})
	if err != nil {
		return nil, err
	}

	basic := &models.Basic{
		CompanyName: data.CompanyName,
		Narrative:   data.Narrative,
		Series:      make([]models.PricePoint, 0, len(data.HistoricalData)),
		Metadata: models.Metadata{
			Sector:    notAvailable(data.Metadata.Sector),
			Industry:  notAvailable(data.Metadata.Industry),
			MarketCap: data.Metadata.MarketCap.Ptr(),
			Currency:  data.Metadata.Currency,
		},
	}

	for _, row := range data.HistoricalData {
		basic.Series = append(basic.Series, models.PricePoint{
			Date:       row.Date.Time,
			Close:      row.Close.Or(0),
			Volume:     row.Volume.Or(0),
			Volatility: row.Volatility.Ptr(),
			RSI:        row.RSI.Ptr(),
			MACD:       row.MACD.Ptr(),
			MA50:       row.MA50.Ptr(),
			MA200:      row.MA200.Ptr(),
		})
	}
	sort.SliceStable(basic.Series, func(i, j int) bool {
		return basic.Series[i].Date.Before(basic.Series[j].Date)
	})

	return basic, nil
}

// DetailedAnalysis retrieves the long-form narrative, risk metrics and Monte Carlo outlook.
func (c *Client) DetailedAnalysis(ctx context.Context, symbol string) (*models.Detailed, error) {
	data, err := postEnvelope[detailedData](ctx, c, EndpointDetailed, symbolRequest{Symbol: symbol})
	if err != nil {
		return nil, err
	}

	detailed := &models.Detailed{
		Narrative:   data.Narrative,
		RiskMetrics: validNumbers(data.TechnicalAnalysis.RiskMetrics),
	}
	if mc := data.MonteCarlo; mc != nil && mc.ExpectedPrice.Valid {
		detailed.MonteCarlo = &models.MonteCarlo{
			ExpectedPrice: mc.ExpectedPrice.Value,
			Lower:         mc.ConfidenceInterval.Lower.Or(0),
			Upper:         mc.ConfidenceInterval.Upper.Or(0),
		}
	}

	return detailed, nil
}

// Confidence retrieves the confidence scores. The result is always usable:
// on failure it is the zero-score fallback and the error says why.
func (c *Client) Confidence(ctx context.Context, symbol string) (models.Confidence, error) {
	body, err := c.do(ctx, http.MethodPost, EndpointConfidence, nil, symbolRequest{Symbol: symbol})
	if err != nil {
		return models.FallbackConfidence(models.ConfidenceUnavailable), err
	}
	return ParseConfidence(body)
}

type backtestRequest struct {
	Symbol         string  `json:"symbol"`
	InitialCapital float64 `json:"initial_capital"`
}

// Backtest runs the strategy simulation. A non-positive capital uses DefaultInitialCapital.
func (c *Client) Backtest(ctx context.Context, symbol string, initialCapital float64) (*models.Backtest, error) {
	if initialCapital <= 0 {
		initialCapital = DefaultInitialCapital
	}

	data, err := postEnvelope[backtestData](ctx, c, EndpointBacktest, backtestRequest{Symbol: symbol, InitialCapital: initialCapital})
	if err != nil {
		return nil, err
	}

	backtest := &models.Backtest{
		InitialCapital: initialCapital,
		Metrics:        validNumbers(data.Metrics),
	}
	for _, point := range data.PortfolioHistory {
		if !point.PortfolioValue.Valid {
			continue
		}
		backtest.PortfolioHistory = append(backtest.PortfolioHistory, models.PortfolioPoint{
			Date:  point.Date.Time,
			Value: point.PortfolioValue.Value,
		})
	}

	return backtest, nil
}

// SearchSymbols queries the symbol directory. The backend answers short queries with a bare [].
func (c *Client) SearchSymbols(ctx context.Context, query string) ([]models.SymbolMatch, error) {
	body, err := c.do(ctx, http.MethodGet, EndpointSearch, url.Values{"q": {query}}, nil)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return []models.SymbolMatch{}, nil
	}

	var resp searchResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", EndpointSearch, err)
	}

	matches := make([]models.SymbolMatch, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Symbol == "" {
			continue
		}
		matches = append(matches, models.SymbolMatch{
			Symbol:   r.Symbol,
			Name:     r.Name,
			Exchange: r.Exchange,
			Type:     r.Type,
		})
	}
	return matches, nil
}

// News retrieves the market news feed as sent by the backend.
func (c *Client) News(ctx context.Context) ([]models.NewsArticle, error) {
	body, err := c.do(ctx, http.MethodGet, EndpointNews, nil, nil)
	if err != nil {
		return nil, err
	}

	data, err := decodeEnvelope[newsData](body, EndpointNews)
	if err != nil {
		return nil, err
	}

	articles := make([]models.NewsArticle, 0, len(data.Articles))
	for _, a := range data.Articles {
		article := models.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			Source:      sourceName(a.Source),
			PublishedAt: a.PublishedAt,
			Link:        a.Link,
			ImageURL:    a.ImageURL,
		}
		if article.Link == "" {
			article.Link = a.URL
		}
		if article.ImageURL == "" {
			article.ImageURL = a.URLToImage
		}
		articles = append(articles, article)
	}
	return articles, nil
}

func sourceName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

func validNumbers(in map[string]Number) map[string]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if v.Valid {
			out[k] = v.Value
		}
	}
	return out
}

func notAvailable(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "N/A") {
		return ""
	}
	return s
}
