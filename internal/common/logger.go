package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const logTimeFormat = "15:04:05"

// InitLogger initializes the arbor logger with configuration.
// File logs go to <executable dir>/logs/finsaathi.log.
func InitLogger(config *Config) arbor.ILogger {
	logger := arbor.NewLogger()
	textOutput := !strings.EqualFold(config.Logging.Format, "json")

	hasFileOutput := false
	hasStdoutOutput := false
	for _, output := range config.Logging.Output {
		switch output {
		case "file":
			hasFileOutput = true
		case "stdout", "console":
			hasStdoutOutput = true
		}
	}

	if hasFileOutput {
		if logsDir, err := logDirectory(); err != nil {
			fmt.Printf("Warning: Failed to resolve logs directory: %v\n", err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   filepath.Join(logsDir, "finsaathi.log"),
				TimeFormat: logTimeFormat,
				MaxSize:    50 * 1024 * 1024,
				MaxBackups: 3,
				TextOutput: textOutput,
			})
		}
	}

	if hasStdoutOutput || !hasFileOutput {
		logger = logger.WithConsoleWriter(consoleWriter(textOutput))
	}

	logger = logger.WithLevelFromString(config.Logging.Level)
	return logger
}

func consoleWriter(textOutput bool) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: logTimeFormat,
		TextOutput: textOutput,
	}
}

func logDirectory() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	logsDir := filepath.Join(filepath.Dir(execPath), "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return "", err
	}
	return logsDir, nil
}
