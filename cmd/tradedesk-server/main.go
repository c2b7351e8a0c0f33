package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bobmcallan/tradedesk/internal/app"
	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/server"
)

func main() {
	// Config path resolution falls back to TRADEDESK_CONFIG and the binary directory
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	a, err := app.NewApp(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	a.StartSnapshotScheduler()
	common.PrintBanner(a.Config, a.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)).
		Msg("Server starting")

	exitCode := 0
	if err := server.NewServer(a).Run(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server stopped with error")
		exitCode = 1
	}

	common.PrintShutdownBanner(a.Logger)
	a.Close()
	a.Logger.Info().Msg("Server stopped")
	os.Exit(exitCode)
}
