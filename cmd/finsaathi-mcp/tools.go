package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createAnalyzeSymbolTool returns the analyze_symbol tool definition
func createAnalyzeSymbolTool() mcp.Tool {
	return mcp.NewTool("analyze_symbol",
		mcp.WithDescription("Run the FinSaathi analysis for a stock symbol: price, volume, confidence, backtest and risk metrics plus the analyst narrative"),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Ticker symbol, e.g. AAPL or RELIANCE.NS"),
		),
	)
}

// createExportReportTool returns the export_report tool definition
func createExportReportTool() mcp.Tool {
	return mcp.NewTool("export_report",
		mcp.WithDescription("Analyze a symbol and write its PDF report (charts, metrics and narrative)"),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Ticker symbol"),
		),
	)
}

// createListReportsTool returns the list_reports tool definition
func createListReportsTool() mcp.Tool {
	return mcp.NewTool("list_reports",
		mcp.WithDescription("List archived PDF reports, newest first"),
		mcp.WithString("symbol",
			mcp.Description("Only reports for this symbol"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 20, max: 100)"),
		),
	)
}

// createSearchSymbolsTool returns the search_symbols tool definition
func createSearchSymbolsTool() mcp.Tool {
	return mcp.NewTool("search_symbols",
		mcp.WithDescription("Find ticker symbols by company name or partial symbol"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("At least two characters"),
		),
	)
}

// createMarketNewsTool returns the market_news tool definition
func createMarketNewsTool() mcp.Tool {
	return mcp.NewTool("market_news",
		mcp.WithDescription("Latest market news, optionally filtered by a keyword in title or description"),
		mcp.WithString("query",
			mcp.Description("Keyword filter (case-insensitive)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max articles (default: 10, max: 50)"),
		),
	)
}
