package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the target site
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("docsprobe", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("site", config.Site.URL).
		Bool("headless", config.Browser.Headless).
		Msg("docsprobe starting")
}
