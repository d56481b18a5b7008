// Package main is the entry point for the Drachma personal finance tracker.
// The application keeps the full ledger in memory, persists it to a local
// sqlite snapshot, and serves a JSON API for accounts, transactions,
// reference data and statement imports.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mstamatakis/drachma/internal/clients/exchangerate"
	"github.com/mstamatakis/drachma/internal/config"
	"github.com/mstamatakis/drachma/internal/events"
	"github.com/mstamatakis/drachma/internal/importer"
	"github.com/mstamatakis/drachma/internal/persist"
	"github.com/mstamatakis/drachma/internal/reliability"
	"github.com/mstamatakis/drachma/internal/rules"
	"github.com/mstamatakis/drachma/internal/scheduler"
	"github.com/mstamatakis/drachma/internal/server"
	"github.com/mstamatakis/drachma/internal/session"
	"github.com/mstamatakis/drachma/internal/store"
	"github.com/mstamatakis/drachma/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Drachma")

	// In-memory store, seeded from the sqlite snapshot when one exists.
	st := store.New(log)

	persister, err := persist.NewSQLitePersister(cfg.SnapshotPath, log)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SnapshotPath).Msg("Failed to open snapshot database")
	}
	defer persister.Close()

	buffers, err := persister.Load(st.Tables())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load snapshot")
	}
	if err := st.SeedTables(buffers); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed store from snapshot")
	}

	sess := session.New(st)

	// Import pipeline and rule engine.
	engine := rules.NewEngine(log)
	pipeline := importer.New(importer.Config{
		BatchSize: cfg.ImportBatchSize,
		Detector: importer.DetectorConfig{
			AmountEpsilon: cfg.DuplicateEps,
			MinOverlapLen: cfg.DuplicatePrefix,
		},
	}, engine, log)

	// Exchange-rate client and refresher.
	rateClient := exchangerate.NewClient(cfg.RateAPIBaseURL, log)
	refresher := exchangerate.NewRefresher(rateClient, sess, log)

	bus := events.NewBus()

	// Background jobs.
	sched := scheduler.New(log)
	var jobs []scheduler.Job

	snapshotJob := &scheduler.SnapshotJob{Session: sess, Persister: persister, Log: log}
	if err := sched.AddJob(cfg.SnapshotSpec, snapshotJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule snapshot job")
	}
	jobs = append(jobs, snapshotJob)

	if cfg.RateRefreshSpec != "" {
		rateJob := &scheduler.RateRefreshJob{Refresher: refresher, Base: cfg.BaseCurrency, Bus: bus}
		if err := sched.AddJob(cfg.RateRefreshSpec, rateJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule rate refresh job")
		}
		jobs = append(jobs, rateJob)
	}

	if cfg.Backup != nil && cfg.Backup.Enabled {
		backupService, err := reliability.NewBackupService(context.Background(), cfg.Backup, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize backup service")
		}
		backupJob := &scheduler.BackupJob{Service: backupService, Session: sess, Bus: bus}
		if err := sched.AddJob(cfg.Backup.Schedule, backupJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule backup job")
		}
		jobs = append(jobs, backupJob)
	}

	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:       log,
		Cfg:       cfg,
		Session:   sess,
		Bus:       bus,
		Pipeline:  pipeline,
		Refresher: refresher,
		Jobs:      jobs,
		Scheduler: sched,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Persist a final snapshot so nothing written since the last periodic
	// run is lost.
	if err := snapshotJob.Run(); err != nil {
		log.Error().Err(err).Msg("Final snapshot failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
