package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner writes the startup banner to stderr and logs the same facts.
func PrintBanner(config *Config, logger *Logger) {
	writeBanner(os.Stderr, config)

	v := GetVersionInfo()
	logger.Info().
		Str("version", v.Version).
		Str("build", v.Build).
		Str("commit", v.Commit).
		Str("environment", config.Environment).
		Str("storage_backend", config.Storage.Backend).
		Int("port", config.Server.Port).
		Msg("Application started")
}

func writeBanner(w io.Writer, config *Config) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 60) + banner.ColorReset

	storage := config.Storage.Backend
	if storage != "memory" {
		storage += " " + config.Storage.Address
	}
	quotes := "catalogue prices"
	if config.Clients.EODHD.APIKey != "" {
		quotes = config.Clients.EODHD.BaseURL
	}

	v := GetVersionInfo()
	fmt.Fprintf(w, "\n%s\n\n", hr)
	fmt.Fprintf(w, "%s  TRADEDESK  brokerage portfolio API%s\n\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n\n", hr)
	rows := [][2]string{
		{"Version", v.Version},
		{"Build", v.Build},
		{"Commit", v.Commit},
		{"Environment", config.Environment},
		{"Listen", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)},
		{"Storage", storage},
		{"Quotes", quotes},
	}
	for _, kv := range rows {
		fmt.Fprintf(w, "%s  %-14s %s%s\n", textColor, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n\n", hr)
}

// PrintShutdownBanner displays the application shutdown banner to stderr.
func PrintShutdownBanner(logger *Logger) {
	hr := banner.ColorCyan + strings.Repeat("═", 36) + banner.ColorReset
	fmt.Fprintf(os.Stderr, "\n%s\n%s  TRADEDESK  SHUTTING DOWN%s\n%s\n\n", hr, banner.ColorBold+banner.ColorWhite, banner.ColorReset, hr)
	logger.Info().Msg("Application shutting down")
}
