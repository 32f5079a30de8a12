// Package aggregator fans out the four analysis requests for a symbol and
// joins them into one ViewModel.
package aggregator

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/metrics"
	"github.com/ternarybob/finsaathi/internal/models"
)

// Service implements interfaces.Aggregator
type Service struct {
	client         interfaces.AnalysisClient
	initialCapital float64
	logger         arbor.ILogger
	metrics        *metrics.Metrics
}

var _ interfaces.Aggregator = (*Service)(nil)

// NewService creates an aggregator over client. m may be nil.
func NewService(client interfaces.AnalysisClient, initialCapital float64, logger arbor.ILogger, m *metrics.Metrics) *Service {
	return &Service{
		client:         client,
		initialCapital: initialCapital,
		logger:         logger,
		metrics:        m,
	}
}

type slot int

const (
	slotBasic slot = iota
	slotDetailed
	slotConfidence
	slotBacktest
	slotCount
)

var slotNames = [slotCount]string{"analysis", "detailed analysis", "confidence", "backtest"}

// FetchAll issues the four requests concurrently and waits for all of them.
// Each request settles into its own slot: a failed request leaves its slot at
// the default and never touches the others. A failure of the analysis,
// detailed analysis or backtest request marks the ViewModel failed; a
// confidence failure only degrades confidence to its fallback.
func (s *Service) FetchAll(ctx context.Context, symbol string) *models.ViewModel {
	start := time.Now()
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	vm := &models.ViewModel{
		Symbol:     symbol,
		Confidence: models.FallbackConfidence(models.ConfidenceUnavailable),
	}

	var (
		wg         sync.WaitGroup
		errs       [slotCount]error
		basic      *models.Basic
		detailed   *models.Detailed
		confidence models.Confidence
		backtest   *models.Backtest
	)

	run := func(idx slot, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[idx] = common.Guard(s.logger, "aggregator."+slotNames[idx], fn)
		}()
	}

	run(slotBasic, func() (err error) {
		basic, err = s.client.Analyze(ctx, symbol)
		return err
	})
	run(slotDetailed, func() (err error) {
		detailed, err = s.client.DetailedAnalysis(ctx, symbol)
		return err
	})
	run(slotConfidence, func() (err error) {
		confidence, err = s.client.Confidence(ctx, symbol)
		return err
	})
	run(slotBacktest, func() (err error) {
		backtest, err = s.client.Backtest(ctx, symbol, s.initialCapital)
		return err
	})

	wg.Wait()

	if errs[slotBasic] == nil && basic != nil {
		vm.Basic = *basic
	}
	if errs[slotDetailed] == nil && detailed != nil {
		vm.Detailed = *detailed
	}
	if errs[slotConfidence] == nil {
		vm.Confidence = confidence
	}
	if errs[slotBacktest] == nil && backtest != nil {
		vm.Backtest = *backtest
	} else {
		vm.Backtest = models.Backtest{InitialCapital: s.initialCapital}
	}

	var failures []string
	for idx, err := range errs {
		if err == nil {
			continue
		}
		s.logger.Warn().
			Str("symbol", symbol).
			Str("request", slotNames[idx]).
			Err(err).
			Msg("Analysis request failed")

		if slot(idx) != slotConfidence {
			failures = append(failures, fmt.Sprintf("%s: %v", slotNames[idx], err))
		}
	}

	if len(failures) > 0 {
		vm.Failed = true
		vm.Error = "Failed to load analysis for " + symbol + " (" + strings.Join(failures, "; ") + ")"
		vm.Confidence = models.FallbackConfidence(models.ConfidenceLoadError)
	}

	vm.FetchedAt = time.Now()
	elapsed := time.Since(start)
	s.metrics.RecordAggregation(vm.Failed, elapsed)

	s.logger.Info().
		Str("symbol", symbol).
		Bool("failed", vm.Failed).
		Int("points", len(vm.Basic.Series)).
		Dur("elapsed", elapsed).
		Msg("Aggregation complete")

	return vm
}

// Field selects a numeric series of PricePoint for headline metrics.
type Field func(models.PricePoint) float64

// Headline fields
var (
	FieldClose  Field = func(p models.PricePoint) float64 { return p.Close }
	FieldVolume Field = func(p models.PricePoint) float64 { return p.Volume }
)

// LatestChange returns the percent change between the last two entries of an
// ascending series. Fewer than two entries, or a zero or non-finite previous
// value, yields 0.
func LatestChange(series []models.PricePoint, field Field) float64 {
	if len(series) < 2 {
		return 0
	}
	latest := field(series[len(series)-1])
	previous := field(series[len(series)-2])
	if previous == 0 || !finite(previous) || !finite(latest) {
		return 0
	}
	return (latest - previous) / previous * 100
}

// Headline builds a metric card from the latest entry of series.
func Headline(series []models.PricePoint, field Field) models.Headline {
	if len(series) == 0 {
		return models.Headline{}
	}
	return models.Headline{
		Value:     field(series[len(series)-1]),
		ChangePct: LatestChange(series, field),
		Available: true,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
