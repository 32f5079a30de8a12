package news

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/models"
)

// Service provides the market news feed with HTML descriptions flattened to markdown
type Service struct {
	client    interfaces.AnalysisClient
	converter *md.Converter
	logger    arbor.ILogger
}

var _ interfaces.NewsService = (*Service)(nil)

// NewService creates a new news service
func NewService(client interfaces.AnalysisClient, logger arbor.ILogger) *Service {
	return &Service{
		client:    client,
		converter: md.NewConverter("", true, nil),
		logger:    logger,
	}
}

// Articles fetches the feed and keeps the articles matching query (all when empty)
func (s *Service) Articles(ctx context.Context, query string) ([]models.NewsArticle, error) {
	articles, err := s.client.News(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}

	for i := range articles {
		articles[i].Description = s.DescriptionToMarkdown(articles[i].Description)
	}

	filtered := Filter(articles, query)
	s.logger.Debug().
		Int("articles", len(articles)).
		Int("matched", len(filtered)).
		Str("query", query).
		Msg("News feed filtered")

	return filtered, nil
}

// DescriptionToMarkdown converts an HTML description to markdown. Plain text is returned unchanged.
func (s *Service) DescriptionToMarkdown(description string) string {
	if !strings.Contains(description, "<") {
		return strings.TrimSpace(description)
	}

	converted, err := s.converter.ConvertString(description)
	if err != nil || strings.TrimSpace(converted) == "" {
		if err != nil {
			s.logger.Warn().Err(err).Msg("HTML to markdown conversion failed, using text fallback")
		}
		return textFallback(description)
	}
	return strings.TrimSpace(converted)
}

// textFallback returns the document's text content with whitespace collapsed
func textFallback(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Filter keeps the articles whose title, description and source together contain
// every whitespace-separated term of query, case-insensitively. An empty query keeps all.
func Filter(articles []models.NewsArticle, query string) []models.NewsArticle {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return articles
	}

	out := make([]models.NewsArticle, 0, len(articles))
	for _, article := range articles {
		haystack := strings.ToLower(article.Title + " " + article.Description + " " + article.Source)
		matched := true
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, article)
		}
	}
	return out
}
