package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/interfaces"
)

// MarketHandler serves symbol search and the news feed
type MarketHandler struct {
	search interfaces.SymbolSearch
	news   interfaces.NewsService
	logger arbor.ILogger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(search interfaces.SymbolSearch, news interfaces.NewsService, logger arbor.ILogger) *MarketHandler {
	return &MarketHandler{
		search: search,
		news:   news,
		logger: logger,
	}
}

// SearchHandler handles GET /api/symbols/search?q=
func (h *MarketHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	matches := h.search.Search(r.Context(), r.URL.Query().Get("q"))
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results": matches,
		"count":   len(matches),
	})
}

// NewsHandler handles GET /api/news?q=
func (h *MarketHandler) NewsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("q")
	articles, err := h.news.Articles(r.Context(), query)
	if err != nil {
		h.logger.Warn().Err(err).Str("query", query).Msg("News feed unavailable")
		WriteError(w, http.StatusBadGateway, "Failed to fetch news")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"articles": articles,
		"count":    len(articles),
	})
}
