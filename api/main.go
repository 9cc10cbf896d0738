package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rogerio-castellano/stationery-tracker/internal/alerts"
	"github.com/rogerio-castellano/stationery-tracker/internal/backup"
	"github.com/rogerio-castellano/stationery-tracker/internal/config"
	"github.com/rogerio-castellano/stationery-tracker/internal/db"
	"github.com/rogerio-castellano/stationery-tracker/internal/http/handlers"
	rl "github.com/rogerio-castellano/stationery-tracker/internal/http/rate_limiter"
	"github.com/rogerio-castellano/stationery-tracker/internal/http/router"
	"github.com/rogerio-castellano/stationery-tracker/internal/repo"
	"github.com/rogerio-castellano/stationery-tracker/internal/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title Stationery Tracker API
// @version 1.0
// @description REST API for the stationery store: products, stock ledger, sales, suppliers and backups.
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dsn := cfg.SQLitePath
	if cfg.DBDriver == db.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	database, err := db.Connect(cfg.DBDriver, dsn)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("could not connect to database")
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, cfg.DBDriver); err != nil {
		log.Fatal().Err(err).Msg("could not migrate database")
	}

	store := repo.NewStore(database)

	var publisher service.AlertPublisher = alerts.NopPublisher{}
	var feed *alerts.RedisFeed
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		feed = alerts.NewRedisFeed(rdb)
		if err := feed.Ping(ctx); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("could not connect to Redis")
		}
		publisher = feed
	}

	ledger := service.NewLedgerService(store, publisher)
	sales := service.NewSaleService(store, ledger)
	suppliers := service.NewSupplierService(store, ledger)

	backups := backup.NewService(backup.Options{
		SourcePath: cfg.BackupSource,
		Dir:        cfg.BackupDir,
		Prefix:     cfg.BackupPrefix,
		Ext:        cfg.BackupExt,
		BeforeCopy: checkpointHook(database, cfg.DBDriver),
	})
	scheduler, err := backup.NewScheduler(backups, backup.SchedulerConfig{
		BackupEveryDays:  cfg.BackupEveryDays,
		BackupAt:         cfg.BackupAt,
		CleanupEveryDays: cfg.CleanupEveryDays,
		CleanupAt:        cfg.CleanupAt,
		RetentionDays:    cfg.BackupRetentionDays,
		Tick:             cfg.SchedulerTick,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid backup schedule")
	}
	if cfg.SchedulerAutostart {
		scheduler.Start(ctx)
	}

	if feed != nil {
		var mailer alerts.Mailer
		if cfg.SMTPHost != "" {
			mailer = alerts.NewSMTPMailer(alerts.SMTPConfig{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				User:     cfg.SMTPUser,
				Password: cfg.SMTPPassword,
				From:     cfg.AlertFrom,
				To:       cfg.AlertTo,
			})
		}
		hour, minute, _ := config.ParseClock(cfg.AlertDigestAt)
		alerts.StartDailyDigest(ctx, feed, mailer, hour, minute)
	}

	limiter := rl.New(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.StartVisitorCleanupLoop(ctx, time.Minute, 5*time.Minute)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: router.NewRouter(&handlers.Server{
			Ledger:        ledger,
			Sales:         sales,
			Suppliers:     suppliers,
			Metrics:       store.Metrics,
			Backups:       backups,
			Scheduler:     scheduler,
			RetentionDays: cfg.BackupRetentionDays,
			BaseContext:   ctx,
		}, limiter),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Str("driver", cfg.DBDriver).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	cancel()
	log.Info().Msg("server exited")
}

// setupLogger prints readable lines in development and JSON everywhere else.
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// checkpointHook flushes the SQLite write-ahead log into the main file so the
// copied file holds every committed write.
func checkpointHook(database *sql.DB, driver string) func(ctx context.Context) error {
	if driver != db.DriverSQLite {
		return nil
	}
	return func(ctx context.Context) error {
		_, err := database.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)")
		return err
	}
}
