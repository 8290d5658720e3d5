package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/inventario-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/ratelimit"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/telemetry"
	httpRouter "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
	"github.com/jhoicas/inventario-ledger/pkg/migrate"
)

const shutdownTimeout = 10 * time.Second

// @title                       Inventario Ledger API
// @version                     1.0
// @description                 Libro de movimientos y saldos de inventario por tenant.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 "Bearer <token>"
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("aplicación finalizada con error")
	}
	log.Info().Msg("aplicación detenida")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	poolOpts := []postgres.PoolOption{postgres.WithApplicationName(cfg.App.Name)}
	if lvl := logger.ParseLevel(cfg.App.LogLevel); lvl <= zerolog.DebugLevel {
		poolOpts = append(poolOpts, postgres.WithQueryLog(log.Named("sql")))
	}
	pool, err := postgres.NewPool(ctx, cfg.DB, poolOpts...)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrate.MaybeRun(ctx, cfg.DB.AutoMigrate, log, pool); err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Insecure:    cfg.App.IsDev(),
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Error().Err(err).Msg("apagado de trazas")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Rate limit distribuido si hay Redis; si no, contador en memoria del proceso.
	rl := httpRouter.RateLimitConfig{PerMinute: cfg.RateLimit.PerMinute}
	if cfg.Redis.URL != "" {
		rdb, err := ratelimit.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		rl.Storage = ratelimit.NewRedisStorage(rdb)
	}

	txRunner := postgres.NewTxRunner(pool, postgres.TxOptions{
		LockTimeout:      cfg.DB.LockTimeout,
		StatementTimeout: cfg.DB.StatementTimeout,
	})
	movementUC := inventory.NewMovementUseCase(txRunner, log.Named("inventory"),
		inventory.WithMetrics(metrics.NewMovementMetrics(reg)),
		inventory.WithOutbox(cfg.Outbox.Enabled),
	)
	queryUC := inventory.NewQueryUseCase(txRunner, infrapdf.NewKardexPDFGenerator())
	productUC := usecase.NewProductUseCase(txRunner)
	warehouseUC := usecase.NewWarehouseUseCase(txRunner)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.AccessLog(log.Named("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.App.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.App.SwaggerFile,
			Path:     "docs",
			Title:    "Inventario Ledger API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		ServiceName: cfg.App.Name,
		Movements:   movementUC,
		Queries:     queryUC,
		ProductUC:   productUC,
		WarehouseUC: warehouseUC,
		Auth: httpRouter.AuthConfig{
			Secret:      cfg.JWT.Secret,
			Issuer:      cfg.JWT.Issuer,
			AllowBypass: cfg.Tenant.SuperadminBypass,
		},
		RateLimit: rl,
		Gatherer:  reg,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("servidor HTTP escuchando")
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(sctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
