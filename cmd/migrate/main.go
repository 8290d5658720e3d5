// migrate aplica o revierte el esquema embebido.
//
// Uso: go run ./cmd/migrate [up|down|status|version|redo|reset|validate]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
	"github.com/jhoicas/inventario-ledger/pkg/migrate"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "uso: migrate [up|down|status|version|redo|reset|validate] [args]")
	}
	flag.Parse()
	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	if command == "validate" {
		if err := migrate.Validate(migrate.FS); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("migraciones válidas")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	var args []string
	if flag.NArg() > 1 {
		args = flag.Args()[1:]
	}
	if err := migrate.Run(ctx, db, command, args...); err != nil {
		log.Error().Err(err).Str("command", command).Msg("migración falló")
		os.Exit(1)
	}
	log.Info().Str("command", command).Msg("migración completada")
}
