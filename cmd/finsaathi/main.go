package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/app"
	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/server"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverPortP  = flag.Int("p", 0, "Server port (shorthand, overrides config)")
	serverHost   = flag.String("host", "", "Server host (overrides config)")
	exportSymbol = flag.String("export", "", "Export a PDF report for SYMBOL and exit")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("FinSaathi version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	finalPort := *serverPort
	if *serverPortP != 0 {
		finalPort = *serverPortP
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	if len(configFiles) == 0 {
		if _, err := os.Stat("finsaathi.toml"); err == nil {
			configFiles = append(configFiles, "finsaathi.toml")
		} else if _, err := os.Stat("deployments/local/finsaathi.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/finsaathi.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, finalPort, *serverHost)

	logger := common.InitLogger(config)
	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()

	common.PrintBanner(config, logger)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Str("badger_path", config.Storage.Badger.Path).
		Str("output_dir", config.Report.OutputDir).
		Msg("Resolved configuration")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	if *exportSymbol != "" {
		if err := runExport(application, *exportSymbol); err != nil {
			logger.Error().Err(err).Str("symbol", *exportSymbol).Msg("Export failed")
			application.Close()
			os.Exit(1)
		}
		return
	}

	srv := server.New(application)

	serverErr := make(chan error, 1)
	common.SafeGo(logger, "http-server", func() {
		serverErr <- srv.Start()
	})

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)).
		Msg("Server ready - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info().Msg("Interrupt signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("Server failed")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}

	logger.Info().Msg("Server stopped")
}

// runExport aggregates one symbol, writes its report and prints the file location
func runExport(application *app.App, symbol string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := application.ExportSymbol(ctx, symbol)
	if err != nil {
		return err
	}

	location := report.Filename
	if application.DiskSink != nil {
		location = application.DiskSink.Path(report.Filename)
	}
	fmt.Printf("Report written: %s (%d pages, id %s)\n", location, report.Pages, report.ID)
	return nil
}
