package news

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/models"
)

type stubClient struct {
	interfaces.AnalysisClient
	articles []models.NewsArticle
	err      error
}

func (s *stubClient) News(ctx context.Context) ([]models.NewsArticle, error) {
	return s.articles, s.err
}

var feed = []models.NewsArticle{
	{Title: "Sensex climbs 500 points", Description: "Banking stocks lead the rally", Source: "Mint"},
	{Title: "RBI keeps repo rate unchanged", Description: "Inflation outlook steady", Source: "Economic Times"},
	{Title: "Apple earnings beat", Description: "iPhone sales strong", Source: "Reuters"},
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query keeps all", "  ", []string{"Sensex climbs 500 points", "RBI keeps repo rate unchanged", "Apple earnings beat"}},
		{"single term case-insensitive", "RALLY", []string{"Sensex climbs 500 points"}},
		{"every term must match", "rbi inflation", []string{"RBI keeps repo rate unchanged"}},
		{"terms may span fields", "apple reuters", []string{"Apple earnings beat"}},
		{"one missing term excludes", "apple mint", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var titles []string
			for _, a := range Filter(feed, tt.query) {
				titles = append(titles, a.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestArticles_ConvertsHTMLDescriptions(t *testing.T) {
	client := &stubClient{articles: []models.NewsArticle{
		{Title: "Markets", Description: "<p>Stocks <strong>rallied</strong> today</p>", Source: "Mint"},
		{Title: "Plain", Description: "  no markup  ", Source: "ET"},
	}}
	svc := NewService(client, arbor.NewLogger())

	articles, err := svc.Articles(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "Stocks **rallied** today", articles[0].Description)
	assert.Equal(t, "no markup", articles[1].Description)
}

func TestArticles_Failure(t *testing.T) {
	svc := NewService(&stubClient{err: errors.New("down")}, arbor.NewLogger())

	_, err := svc.Articles(context.Background(), "rbi")
	assert.Error(t, err)
}

func TestTextFallback(t *testing.T) {
	assert.Equal(t, "a b & c", textFallback("<div>a\n <span>b</span> &amp; c</div>"))
}
