package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the effective settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.Print("FinSaathi", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("environment", config.Environment).
		Str("api", config.API.BaseURL).
		Str("capture", config.Capture.Mode).
		Int("port", config.Server.Port).
		Msg("FinSaathi starting")
}
