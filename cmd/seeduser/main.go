// Command seeduser crea o actualiza un usuario de staff.
// Uso: go run ./cmd/seeduser -username admin -password secreto -rol admin
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"heladeria/internal/config"
	"heladeria/internal/infra"
	"heladeria/internal/repository"
	"heladeria/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	username := flag.String("username", envOr("SEED_USERNAME", "admin"), "usuario")
	password := flag.String("password", os.Getenv("SEED_PASSWORD"), "password (min 4)")
	nombre := flag.String("nombre", envOr("SEED_NOMBRE", "Administrador"), "nombre visible")
	rol := flag.String("rol", envOr("SEED_ROL", "admin"), "staff | cadete | admin")
	flag.Parse()

	if len(*password) < 4 {
		log.Fatal().Msg("password requerido (-password o SEED_PASSWORD, min 4 caracteres)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	auth := service.NewAuthService(repository.NewUsuarioRepository(db), cfg)
	u, err := auth.GuardarUsuario(context.Background(), *username, *nombre, *password, *rol)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo guardar el usuario")
	}
	fmt.Printf("usuario %q (id %d, rol %s) creado/actualizado\n", u.Username, u.ID, u.Rol)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
