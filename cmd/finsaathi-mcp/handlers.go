package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/app"
	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/services/aggregator"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func clamp(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// handleAnalyzeSymbol implements the analyze_symbol tool
func handleAnalyzeSymbol(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := request.RequireString("symbol")
		if err != nil {
			return textResult("Error: symbol parameter is required"), nil
		}
		symbol, err := common.ParseSymbol(raw)
		if err != nil {
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}
		if symbol == "" {
			return textResult("Error: symbol parameter is required"), nil
		}

		vm, gen, _ := a.State.Refresh(ctx, a.Aggregator, symbol)
		if vm.Failed {
			logger.Warn().Str("symbol", symbol).Str("error", vm.Error).Msg("Analysis failed")
			return textResult(fmt.Sprintf("Analysis failed: %s", vm.Error)), nil
		}

		return textResult(formatAnalysis(aggregator.View(vm, gen))), nil
	}
}

// handleExportReport implements the export_report tool
func handleExportReport(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := request.RequireString("symbol")
		if err != nil || common.NormalizeSymbol(symbol) == "" {
			return textResult("Error: symbol parameter is required"), nil
		}

		report, err := a.ExportSymbol(ctx, symbol)
		if err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("Export failed")
			return textResult(fmt.Sprintf("Export error: %v", err)), nil
		}

		location := ""
		if a.DiskSink != nil {
			location = a.DiskSink.Path(report.Filename)
		}
		return textResult(formatExport(report, location)), nil
	}
}

// handleListReports implements the list_reports tool
func handleListReports(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol := common.NormalizeSymbol(request.GetString("symbol", ""))
		limit := clamp(request.GetInt("limit", 20), 20, 100)

		reports, err := a.StorageManager.ReportStorage().ListReports(ctx, symbol, limit)
		if err != nil {
			logger.Error().Err(err).Msg("List reports failed")
			return textResult(fmt.Sprintf("Error listing reports: %v", err)), nil
		}
		return textResult(formatReports(reports)), nil
	}
}

// handleSearchSymbols implements the search_symbols tool
func handleSearchSymbols(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return textResult("Error: query parameter is required"), nil
		}
		return textResult(formatMatches(query, a.Search.Search(ctx, query))), nil
	}
}

// handleMarketNews implements the market_news tool
func handleMarketNews(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := request.GetString("query", "")
		limit := clamp(request.GetInt("limit", 10), 10, 50)

		articles, err := a.News.Articles(ctx, query)
		if err != nil {
			logger.Error().Err(err).Msg("News fetch failed")
			return textResult(fmt.Sprintf("News error: %v", err)), nil
		}
		if len(articles) > limit {
			articles = articles[:limit]
		}
		return textResult(formatNews(query, articles)), nil
	}
}
