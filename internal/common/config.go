package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment" yaml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server" yaml:"server"`
	API         APIConfig     `toml:"api" yaml:"api"`
	Capture     CaptureConfig `toml:"capture" yaml:"capture"`
	Report      ReportConfig  `toml:"report" yaml:"report"`
	Storage     StorageConfig `toml:"storage" yaml:"storage"`
	Logging     LoggingConfig `toml:"logging" yaml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port" yaml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host" yaml:"host"`
}

// APIConfig configures the upstream analysis backend
type APIConfig struct {
	BaseURL        string        `toml:"base_url" yaml:"base_url" validate:"required,url"`
	Timeout        string        `toml:"timeout" yaml:"timeout"`                                          // e.g. "60s" - analysis calls run an LLM upstream
	RateLimit      int           `toml:"rate_limit" yaml:"rate_limit" validate:"gte=1"`                   // requests per second
	InitialCapital float64       `toml:"initial_capital" yaml:"initial_capital" validate:"gt=0"`          // backtest starting capital
	Breaker        BreakerConfig `toml:"breaker" yaml:"breaker"`
}

// BreakerConfig configures the per-endpoint circuit breakers
type BreakerConfig struct {
	Enabled     bool   `toml:"enabled" yaml:"enabled"`
	MaxRequests uint32 `toml:"max_requests" yaml:"max_requests"` // requests allowed while half-open
	Interval    string `toml:"interval" yaml:"interval"`         // closed-state count reset period
	Timeout     string `toml:"timeout" yaml:"timeout"`           // open-state duration before half-open
}

// CaptureConfig configures chart rasterization
type CaptureConfig struct {
	Mode       string  `toml:"mode" yaml:"mode" validate:"oneof=native browser"` // "native" (go-chart) or "browser" (headless Chrome)
	Scale      float64 `toml:"scale" yaml:"scale" validate:"gt=0,lte=4"`
	Headless   bool    `toml:"headless" yaml:"headless"`
	NoSandbox  bool    `toml:"no_sandbox" yaml:"no_sandbox"`
	ChromePath string  `toml:"chrome_path" yaml:"chrome_path"` // empty = chromedp discovery
	Timeout    string  `toml:"timeout" yaml:"timeout"`         // per-region capture timeout
}

// ReportConfig configures PDF export
type ReportConfig struct {
	OutputDir   string   `toml:"output_dir" yaml:"output_dir"`   // where saved reports are written; empty = archive only
	Attribution string   `toml:"attribution" yaml:"attribution"` // footer source attribution
	Archive     bool     `toml:"archive" yaml:"archive"`         // keep a copy of every report in Badger
	Schedule    string   `toml:"schedule" yaml:"schedule"`       // cron schedule for watchlist exports; empty = disabled
	Watchlist   []string `toml:"watchlist" yaml:"watchlist" validate:"dive,ticker"`
	Concurrency int      `toml:"concurrency" yaml:"concurrency" validate:"gte=0,lte=8"` // symbols exported at once by the scheduler
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger" yaml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" yaml:"path"`                         // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup" yaml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level" yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string   `toml:"format" yaml:"format"` // "json" or "text"
	Output []string `toml:"output" yaml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		API: APIConfig{
			BaseURL:        "http://localhost:5000",
			Timeout:        "120s",
			RateLimit:      10,
			InitialCapital: 100000,
			Breaker: BreakerConfig{
				Enabled:     true,
				MaxRequests: 1,
				Interval:    "1m",
				Timeout:     "30s",
			},
		},
		Capture: CaptureConfig{
			Mode:     "native",
			Scale:    2,
			Headless: true,
			Timeout:  "20s",
		},
		Report: ReportConfig{
			OutputDir:   "./reports",
			Attribution: "Generated by FinSaathi - Your AI Financial Assistant",
			Archive:     true,
			Concurrency: 1,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier ones. .yaml/.yml files are decoded as YAML, everything else as TOML.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, config)
		default:
			err = toml.Unmarshal(data, config)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FINSAATHI_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("FINSAATHI_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("FINSAATHI_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Upstream API configuration
	if baseURL := os.Getenv("FINSAATHI_API_BASE_URL"); baseURL != "" {
		config.API.BaseURL = baseURL
	}
	if timeout := os.Getenv("FINSAATHI_API_TIMEOUT"); timeout != "" {
		if _, err := time.ParseDuration(timeout); err == nil {
			config.API.Timeout = timeout
		}
	}
	if capital := os.Getenv("FINSAATHI_API_INITIAL_CAPITAL"); capital != "" {
		if c, err := strconv.ParseFloat(capital, 64); err == nil {
			config.API.InitialCapital = c
		}
	}
	if breaker := os.Getenv("FINSAATHI_API_BREAKER_ENABLED"); breaker != "" {
		if b, err := strconv.ParseBool(breaker); err == nil {
			config.API.Breaker.Enabled = b
		}
	}

	// Capture configuration
	if mode := os.Getenv("FINSAATHI_CAPTURE_MODE"); mode != "" {
		config.Capture.Mode = mode
	}
	if chromePath := os.Getenv("FINSAATHI_CHROME_PATH"); chromePath != "" {
		config.Capture.ChromePath = chromePath
	}
	if noSandbox := os.Getenv("FINSAATHI_CAPTURE_NO_SANDBOX"); noSandbox != "" {
		if ns, err := strconv.ParseBool(noSandbox); err == nil {
			config.Capture.NoSandbox = ns
		}
	}

	// Report configuration
	if outputDir := os.Getenv("FINSAATHI_REPORT_OUTPUT_DIR"); outputDir != "" {
		config.Report.OutputDir = outputDir
	}
	if schedule := os.Getenv("FINSAATHI_REPORT_SCHEDULE"); schedule != "" {
		config.Report.Schedule = schedule
	}
	if concurrency := os.Getenv("FINSAATHI_REPORT_CONCURRENCY"); concurrency != "" {
		if n, err := strconv.Atoi(concurrency); err == nil {
			config.Report.Concurrency = n
		}
	}
	if watchlist := os.Getenv("FINSAATHI_REPORT_WATCHLIST"); watchlist != "" {
		if symbols := splitList(watchlist); len(symbols) > 0 {
			config.Report.Watchlist = symbols
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("FINSAATHI_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("FINSAATHI_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("FINSAATHI_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("FINSAATHI_LOG_OUTPUT"); output != "" {
		if outputs := splitList(output); len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks struct constraints and the report schedule
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Report.Schedule != "" {
		if err := ValidateReportSchedule(c.Report.Schedule); err != nil {
			return fmt.Errorf("invalid report schedule: %w", err)
		}
	}
	return nil
}

// IsProduction reports whether the environment is production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ValidateReportSchedule validates a standard 5-field cron expression
func ValidateReportSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// TimeoutDuration returns the upstream HTTP timeout
func (c APIConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(c.Timeout, 120*time.Second)
}

// IntervalDuration returns the closed-state count reset period
func (c BreakerConfig) IntervalDuration() time.Duration {
	return parseDurationOr(c.Interval, time.Minute)
}

// TimeoutDuration returns the open-state duration
func (c BreakerConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(c.Timeout, 30*time.Second)
}

// TimeoutDuration returns the per-region capture timeout
func (c CaptureConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(c.Timeout, 20*time.Second)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
