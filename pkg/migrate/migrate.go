// Package migrate aplica el esquema embebido con goose.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
	"github.com/pressly/goose/v3"
)

// Dir directorio de las migraciones dentro de FS.
const Dir = "migrations"

// FS migraciones SQL embebidas en el binario.
//
//go:embed migrations/*.sql
var FS embed.FS

var sqlFileRe = regexp.MustCompile(`^(\d{5})_[a-z0-9_]+\.sql$`)

// Run ejecuta un comando de goose (up, down, status, version, redo, reset) sobre db.
func Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	goose.SetBaseFS(FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, Dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up aplica todas las migraciones pendientes usando una conexión del pool.
func Up(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return Run(ctx, db, "up")
}

// MaybeRun aplica las migraciones al arrancar si DB_AUTO_MIGRATE está activo.
func MaybeRun(ctx context.Context, enabled bool, log *logger.Logger, pool *pgxpool.Pool) error {
	if !enabled {
		return nil
	}
	log.Info().Str("dir", Dir).Msg("aplicando migraciones (auto-migrate)")
	if err := Up(ctx, pool); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	log.Info().Msg("migraciones aplicadas")
	return nil
}

// Validate revisa nombres de archivo, versiones duplicadas y anotaciones goose.
func Validate(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, Dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", Dir, err)
	}
	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected NNNNN_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		b, err := fs.ReadFile(fsys, Dir+"/"+name)
		if err != nil {
			return fmt.Errorf("read file %q: %w", name, err)
		}
		txt := string(b)
		if !strings.Contains(txt, "-- +goose Up") {
			return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
		}
		if !strings.Contains(txt, "-- +goose Down") {
			return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
		}
	}
	if len(seen) == 0 {
		return fmt.Errorf("no migrations found in %q", Dir)
	}
	return nil
}
