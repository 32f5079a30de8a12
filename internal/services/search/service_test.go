package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/models"
)

type stubClient struct {
	interfaces.AnalysisClient
	matches []models.SymbolMatch
	err     error
	calls   int
}

func (s *stubClient) SearchSymbols(ctx context.Context, query string) ([]models.SymbolMatch, error) {
	s.calls++
	return s.matches, s.err
}

func TestSearch(t *testing.T) {
	apple := []models.SymbolMatch{{Symbol: "AAPL", Name: "Apple Inc."}}

	tests := []struct {
		name      string
		query     string
		client    *stubClient
		want      []models.SymbolMatch
		wantCalls int
	}{
		{"short query skips upstream", "a", &stubClient{matches: apple}, []models.SymbolMatch{}, 0},
		{"whitespace is trimmed", "  a ", &stubClient{matches: apple}, []models.SymbolMatch{}, 0},
		{"match", "AAP", &stubClient{matches: apple}, apple, 1},
		{"failure is empty", "AAP", &stubClient{err: errors.New("down")}, []models.SymbolMatch{}, 1},
		{"nil result is empty", "ZZ", &stubClient{}, []models.SymbolMatch{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.client, arbor.NewLogger())
			got := svc.Search(context.Background(), tt.query)
			assert.Equal(t, tt.want, got)
			assert.NotNil(t, got)
			assert.Equal(t, tt.wantCalls, tt.client.calls)
		})
	}
}
