package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/finsaathi/internal/app"
	"github.com/ternarybob/finsaathi/internal/common"
)

func main() {
	configPath := os.Getenv("FINSAATHI_CONFIG")
	if configPath == "" {
		configPath = "finsaathi.toml"
	}

	var paths []string
	if _, err := os.Stat(configPath); err == nil {
		paths = append(paths, configPath)
	}

	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Scheduled exports belong to the HTTP service
	config.Report.Schedule = ""

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:       arbor_models.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
	}).WithLevelFromString("warn")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	mcpServer := server.NewMCPServer(
		"finsaathi",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Analysis and reports
	mcpServer.AddTool(createAnalyzeSymbolTool(), handleAnalyzeSymbol(application, logger))
	mcpServer.AddTool(createExportReportTool(), handleExportReport(application, logger))
	mcpServer.AddTool(createListReportsTool(), handleListReports(application, logger))

	// Market data
	mcpServer.AddTool(createSearchSymbolsTool(), handleSearchSymbols(application, logger))
	mcpServer.AddTool(createMarketNewsTool(), handleMarketNews(application, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
