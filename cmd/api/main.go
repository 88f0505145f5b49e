package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"hotel_booking/internal/adapters/auth"
	server "hotel_booking/internal/adapters/http_server"
	"hotel_booking/internal/adapters/observability"
	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/app"
	"hotel_booking/internal/shared"
	mysqlrepo "hotel_booking/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	store := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		// reads fall through to MySQL while redis is down
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("auth setup failed")
	}

	handlers := &server.Handlers{
		Bookings: app.NewBookingService(store, cache, cfg.SameDayTurnover, time.Now),
		Rooms:    app.NewRoomService(store, cache, cfg.CacheTTL, time.Now),
		Stats:    app.NewStatsService(store, cache, cfg.CacheTTL, time.Now),
		Auth:     verifier,
	}

	// http
	reg := observability.InitRegistry()
	srv := server.New(cfg.RateLimitRPS)
	metricsSrv := observability.Server(cfg.MetricsAddr, reg)
	if metricsSrv == nil {
		srv.Mount("/metrics", observability.MetricsHandler(reg))
	}
	srv.MountHandlers(handlers)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	servers := []*http.Server{httpSrv}
	if metricsSrv != nil {
		servers = append(servers, metricsSrv)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		s := s
		g.Go(func() error {
			log.Info().Str("addr", s.Addr).Msg("listening")
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		var errs []error
		for _, s := range servers {
			errs = append(errs, s.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("shutdown complete")
}
