package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
)

// Ensure TxRunner implements inventory.TxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)

// TxOptions límites que se fijan en cada transacción.
type TxOptions struct {
	LockTimeout      time.Duration
	StatementTimeout time.Duration
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con el tenant fijado para RLS.
type TxRunner struct {
	pool *pgxpool.Pool
	opts TxOptions
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, opts TxOptions) *TxRunner {
	return &TxRunner{pool: pool, opts: opts}
}

// Run valida el scope, inicia una transacción, fija app.tenant_id / app.is_superadmin y los
// timeouts con SET LOCAL, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los errores de PostgreSQL salen traducidos a errores de dominio.
func (r *TxRunner) Run(ctx context.Context, scope tenant.Scope, fn func(s inventory.Stores) error) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return classify(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := applyScope(ctx, tx, scope, r.opts); err != nil {
		return classify(err)
	}
	if err := fn(newStores(tx)); err != nil {
		return classify(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func newStores(tx pgx.Tx) inventory.Stores {
	return inventory.Stores{
		Balances:   NewBalanceRepository(tx),
		Movements:  NewMovementRepository(tx),
		Products:   NewProductRepository(tx),
		Warehouses: NewWarehouseRepository(tx),
		Outbox:     NewOutboxRepository(tx),
	}
}

// applyScope equivale a SET LOCAL; los valores se descartan al terminar la transacción.
func applyScope(ctx context.Context, q Querier, scope tenant.Scope, opts TxOptions) error {
	superadmin := "off"
	if scope.Bypass {
		superadmin = "on"
	}
	_, err := q.Exec(ctx,
		`SELECT set_config('app.tenant_id', $1, true),
		        set_config('app.is_superadmin', $2, true),
		        set_config('lock_timeout', $3, true),
		        set_config('statement_timeout', $4, true)`,
		scope.TenantID, superadmin, millis(opts.LockTimeout), millis(opts.StatementTimeout),
	)
	if err != nil {
		return fmt.Errorf("set tenant scope: %w", err)
	}
	return nil
}

func millis(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	return strconv.FormatInt(d.Milliseconds(), 10)
}
