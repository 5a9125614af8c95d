package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"heladeria/internal/config"
	"heladeria/internal/handler"
	"heladeria/internal/infra"
	"heladeria/internal/middleware"
	"heladeria/internal/realtime"
	"heladeria/internal/repository"
	"heladeria/internal/router"
	"heladeria/internal/service"
	"heladeria/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger. dev: pretty, prod: JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	gate, err := cfg.Gate()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid delivery fee config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Duplicate VENTA rows left by older deployments block the unique index;
	// repair them before serving so the index is always in place.
	cajaRepo := repository.NewCajaRepository(db)
	ledger := service.NewLedgerService(cajaRepo, repository.NewTransactor(db))
	if _, err := ledger.DedupeRepair(ctx); err != nil {
		log.Fatal().Err(err).Msg("ledger dedupe repair failed")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	middleware.RegisterMetrics(reg)
	realtime.RegisterMetrics(reg)
	infra.RegisterMetrics(reg)

	hub := realtime.NewHub()
	var publisher realtime.Publisher = hub
	if cfg.RealtimeRedisFanout {
		relay := realtime.NewRedisRelay(rdb, hub)
		go relay.Run(ctx)
		publisher = relay
		log.Info().Msg("realtime: redis fan-out enabled")
	}

	// Async geocoding: worker pool over Redis lists plus a periodic sweep
	// that re-enqueues orders whose job was lost.
	geocoder := infra.NewGeocodingClient(cfg.GoogleGeocodingKey, cfg.MapsLanguage, rdb)
	dispatcher := worker.NewDispatcher(rdb)
	pedidoRepo := repository.NewPedidoRepository(db)
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, worker.WorkerHandlers{
		Geocodificacion: worker.NewGeocodificacionWorker(geocoder, pedidoRepo),
	})
	if _, err := worker.StartBarrido(ctx, worker.NewBarridoGeocodificacion(pedidoRepo, dispatcher)); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule geocoding sweep")
	}

	loginLimiter := middleware.LoginLimiter()
	checkoutLimiter := middleware.CheckoutLimiter()
	loginLimiter.StartPurge(ctx)
	checkoutLimiter.StartPurge(ctx)

	var geo handler.Geocoder
	if cfg.GoogleGeocodingKey != "" {
		geo = geocoder
	}

	r := router.New(router.Deps{
		Config:          cfg,
		DB:              db,
		Redis:           rdb,
		Gate:            gate,
		Hub:             hub,
		Publisher:       publisher,
		Cola:            dispatcher,
		Geocoder:        geo,
		Registry:        reg,
		LoginLimiter:    loginLimiter,
		CheckoutLimiter: checkoutLimiter,
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: websocket connections are long-lived
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("heladeria backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
