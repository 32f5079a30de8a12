package interfaces

import (
	"context"

	"github.com/ternarybob/finsaathi/internal/models"
)

// AnalysisClient is the remote analysis backend
type AnalysisClient interface {
	Analyze(ctx context.Context, symbol string) (*models.Basic, error)
	DetailedAnalysis(ctx context.Context, symbol string) (*models.Detailed, error)
	// Confidence always returns a usable object; on failure it is the fallback with a non-nil error
	Confidence(ctx context.Context, symbol string) (models.Confidence, error)
	Backtest(ctx context.Context, symbol string, initialCapital float64) (*models.Backtest, error)
	SearchSymbols(ctx context.Context, query string) ([]models.SymbolMatch, error)
	News(ctx context.Context) ([]models.NewsArticle, error)
}

// Aggregator fans out one symbol's requests and joins them into a ViewModel
type Aggregator interface {
	// FetchAll never returns nil; failures are reported on the ViewModel
	FetchAll(ctx context.Context, symbol string) *models.ViewModel
}

// SymbolSearch resolves partial queries to symbols
type SymbolSearch interface {
	Search(ctx context.Context, query string) []models.SymbolMatch
}

// NewsService serves the filtered market news feed
type NewsService interface {
	Articles(ctx context.Context, query string) ([]models.NewsArticle, error)
}
