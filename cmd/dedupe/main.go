// cmd/dedupe removes duplicate VENTA movements (keeping the newest per sale)
// and creates the unique index that prevents new ones. Safe to run repeatedly.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"heladeria/internal/config"
	"heladeria/internal/infra"
	"heladeria/internal/repository"
	"heladeria/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ledger := service.NewLedgerService(repository.NewCajaRepository(db), repository.NewTransactor(db))
	n, err := ledger.DedupeRepair(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("dedupe failed")
	}
	fmt.Printf("movimientos VENTA duplicados eliminados: %d\n", n)
}
