package search

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/models"
)

// MinQueryLength is the shortest query sent upstream
const MinQueryLength = 2

// Service implements interfaces.SymbolSearch
type Service struct {
	client interfaces.AnalysisClient
	logger arbor.ILogger
}

var _ interfaces.SymbolSearch = (*Service)(nil)

func NewService(client interfaces.AnalysisClient, logger arbor.ILogger) *Service {
	return &Service{client: client, logger: logger}
}

// Search returns matches for query. Short queries and failures yield an empty
// slice; failures are logged and never retried.
func (s *Service) Search(ctx context.Context, query string) []models.SymbolMatch {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return []models.SymbolMatch{}
	}

	matches, err := s.client.SearchSymbols(ctx, query)
	if err != nil {
		s.logger.Warn().Str("query", query).Err(err).Msg("Symbol search failed")
		return []models.SymbolMatch{}
	}
	if matches == nil {
		return []models.SymbolMatch{}
	}
	return matches
}
