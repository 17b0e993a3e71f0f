package commands

import (
	"context"
	"fmt"

	"amtrak-price-tracker/config"
	"amtrak-price-tracker/scraper/amtrak"
	"amtrak-price-tracker/services"
	"amtrak-price-tracker/storage"
	"amtrak-price-tracker/utils"
)

// app is the wiring shared by every command
type app struct {
	cfg      *config.Config
	logger   *utils.Logger
	trips    storage.TripStore
	settings *storage.SettingsFile
	closers  []func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Debug = true
	}
	logger := utils.NewLogger(cfg.Debug)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		settings: storage.NewSettingsFile(cfg.SettingsPath, logger),
	}

	// ================== Trip storage ====================
	if cfg.DatabaseURL == "" {
		logger.Warn("No database_url configured: trips live in memory and are lost on exit")
		a.trips = storage.NewMemoryTripStore()
		return a, nil
	}
	pg, err := storage.NewPostgresTripStore(cfg.DatabaseURL, cfg.MaxRetries, logger)
	if err != nil {
		logger.Error("Make sure PostgreSQL is running and database_url is correct")
		return nil, fmt.Errorf("cannot connect to PostgreSQL: %w", err)
	}
	if err := pg.CreateTable(ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("failed to create trips table: %w", err)
	}
	a.trips = pg
	a.closers = append(a.closers, pg.Close)
	return a, nil
}

// newTracker wires the browser checker, sinks and check log into a tracker
func (a *app) newTracker() *services.Tracker {
	controller := amtrak.NewController(a.cfg, a.logger)
	checker := amtrak.NewChecker(a.cfg, controller, a.logger)
	a.closers = append(a.closers, checker.Close)

	sink := services.MultiSink{
		services.NewLogSink(a.settings, a.logger),
		services.NewEmailSink(a.cfg.SMTP, a.settings, a.logger),
	}

	var recorder storage.CheckRecorder
	if a.cfg.CheckLogPath != "" {
		recorder = storage.NewCSVWriter(a.cfg.CheckLogPath, a.logger)
	}

	return services.NewTracker(a.trips, a.settings, checker, sink, recorder, utils.NewRateLimiter(a.cfg.TripDelayMs), a.logger)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.logger.Sync()
}
