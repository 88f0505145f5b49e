package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/observability"
	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/app"
	"hotel_booking/internal/shared"
	mysqlrepo "hotel_booking/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Int("workers", cfg.SweepWorkers).
		Dur("interval", cfg.SweepInterval).
		Msg("sweeper starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	svc := app.NewBookingService(mysqlrepo.New(db), cache, cfg.SameDayTurnover, time.Now)

	reg := observability.InitRegistry()
	if ms := observability.Server(cfg.MetricsAddr, reg); ms != nil {
		go func() {
			if err := ms.ListenAndServe(); err != nil {
				log.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
		defer ms.Close()
	}

	sweep := func() {
		start := time.Now()
		n, err := svc.CompleteFinishedStays(ctx, cfg.SweepWorkers)
		observability.ObserveCompleted(n)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Int("completed", n).Msg("sweep failed")
			return
		}
		log.Info().Int("completed", n).Dur("took", time.Since(start)).Msg("sweep done")
	}

	if cfg.SweepInterval <= 0 {
		log.Fatal().Dur("interval", cfg.SweepInterval).Msg("SWEEP_INTERVAL_SECONDS must be positive")
	}

	sweep()
	t := time.NewTicker(cfg.SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sweeper stopped")
			return
		case <-t.C:
			sweep()
		}
	}
}
