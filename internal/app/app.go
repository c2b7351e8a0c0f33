// Package app wires configuration, storage, clients and services into the
// shared core used by cmd/tradedesk-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/bobmcallan/tradedesk/internal/clients/eodhd"
	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
	"github.com/bobmcallan/tradedesk/internal/services/admin"
	"github.com/bobmcallan/tradedesk/internal/services/portfolio"
	"github.com/bobmcallan/tradedesk/internal/services/quote"
	"github.com/bobmcallan/tradedesk/internal/services/stock"
	"github.com/bobmcallan/tradedesk/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	MarketClient     interfaces.MarketDataClient
	QuoteCache       *quote.Cache
	QuoteService     interfaces.QuoteService
	PortfolioService interfaces.PortfolioService
	StockService     interfaces.StockService
	AdminService     interfaces.AdminService
	StartupTime      time.Time

	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath picks the config file: the explicit path, TRADEDESK_CONFIG,
// tradedesk.toml next to the binary, then config/tradedesk.toml.
func resolveConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if p := os.Getenv("TRADEDESK_CONFIG"); p != "" {
		return p
	}
	p := filepath.Join(getBinaryDir(), "tradedesk.toml")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return "config/tradedesk.toml"
}

// NewApp loads configuration and initializes storage, the market-data client
// and all services. configPath may be empty.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	common.LoadVersionFromFile()

	// A missing .env is normal outside development
	_ = godotenv.Load()

	config, err := common.LoadConfig(resolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if config.IsProduction() {
		if missing := config.ValidateRequired(); len(missing) > 0 {
			return nil, fmt.Errorf("production config incomplete: %s", strings.Join(missing, ", "))
		}
	}

	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(getBinaryDir(), config.Logging.FilePath)
	}
	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var client interfaces.MarketDataClient
	if key := config.Clients.EODHD.APIKey; key != "" {
		client = eodhd.NewClient(key,
			eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
			eodhd.WithLogger(logger),
			eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
			eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
			eodhd.WithExchange(config.Clients.EODHD.Exchange),
		)
	} else {
		logger.Warn().Msg("EODHD API key not configured - quotes will use catalogue prices")
	}

	a := NewAppWithStorage(config, logger, storageManager, client)
	a.StartupTime = startupStart

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// NewAppWithStorage wires services over an existing store. client may be nil.
func NewAppWithStorage(config *common.Config, logger *common.Logger, store interfaces.StorageManager, client interfaces.MarketDataClient) *App {
	cache := quote.NewCache(config.Cache, logger)
	quoteService := quote.NewService(client, store.StockStore(), cache, logger)
	portfolioService := portfolio.NewService(store, quoteService, logger)
	stockService := stock.NewService(store, portfolioService, logger)
	adminService := admin.NewService(store, quoteService, logger)

	return &App{
		Config:           config,
		Logger:           logger,
		Storage:          store,
		MarketClient:     client,
		QuoteCache:       cache,
		QuoteService:     quoteService,
		PortfolioService: portfolioService,
		StockService:     stockService,
		AdminService:     adminService,
		StartupTime:      time.Now(),
	}
}

// StartSnapshotScheduler launches periodic snapshot refresh when
// scheduler.snapshot_interval is configured.
func (a *App) StartSnapshotScheduler() {
	interval := a.Config.Scheduler.GetSnapshotInterval()
	if interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	go startSnapshotScheduler(ctx, a.PortfolioService, a.Logger, interval)
}

// Close releases all resources held by the App.
// Shutdown order: cancel scheduler, close quote cache, close storage.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.QuoteCache != nil {
		if err := a.QuoteCache.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close quote cache")
		}
		a.QuoteCache = nil
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
		a.Storage = nil
	}
}
