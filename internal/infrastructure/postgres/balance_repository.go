package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
	"github.com/shopspring/decimal"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

const balanceColumns = `id, tenant_id, product_id, warehouse_id, qty, updated_at`

// BalanceRepo implementación de BalanceRepository sobre inventory_balances.
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

// CreateIfAbsent inserta el saldo en cero; si otra transacción ya lo creó no hace nada.
func (r *BalanceRepo) CreateIfAbsent(ctx context.Context, scope tenant.Scope, productID, warehouseID string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_balances (tenant_id, product_id, warehouse_id, qty, updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (tenant_id, product_id, warehouse_id) DO NOTHING`,
		scope.TenantID, productID, warehouseID,
	)
	if err != nil {
		return classify(fmt.Errorf("insert balance: %w", err))
	}
	return nil
}

// GetForUpdate obtiene el saldo y bloquea la fila para update (SELECT FOR UPDATE).
func (r *BalanceRepo) GetForUpdate(ctx context.Context, scope tenant.Scope, productID, warehouseID string) (*entity.Balance, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+balanceColumns+`
		FROM inventory_balances
		WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3
		FOR UPDATE`,
		scope.TenantID, productID, warehouseID,
	)
	b, err := scanBalance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(fmt.Errorf("get balance for update: %w", err))
	}
	return b, nil
}

// UpdateQuantity fija la cantidad. El CHECK qty >= 0 de la tabla es la última barrera.
func (r *BalanceRepo) UpdateQuantity(ctx context.Context, scope tenant.Scope, balanceID string, qty decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE inventory_balances SET qty = $3, updated_at = now()
		WHERE id = $1 AND tenant_id = $2`,
		balanceID, scope.TenantID, qty,
	)
	if err != nil {
		return classify(fmt.Errorf("update balance: %w", err))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: saldo %s", domain.ErrNotFound, balanceID)
	}
	return nil
}

// Get lectura sin bloqueo.
func (r *BalanceRepo) Get(ctx context.Context, scope tenant.Scope, productID, warehouseID string) (*entity.Balance, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+balanceColumns+`
		FROM inventory_balances
		WHERE ($1 OR tenant_id = $2) AND product_id = $3 AND warehouse_id = $4
		LIMIT 1`,
		scope.Bypass, scope.TenantID, productID, warehouseID,
	)
	b, err := scanBalance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(fmt.Errorf("get balance: %w", err))
	}
	return b, nil
}

// List lista saldos con filtros opcionales por producto y bodega.
func (r *BalanceRepo) List(ctx context.Context, scope tenant.Scope, f repository.BalanceFilter) ([]*entity.Balance, error) {
	where := []string{"($1 OR tenant_id = $2)"}
	args := []any{scope.Bypass, scope.TenantID}
	if f.ProductID != "" {
		args = append(args, f.ProductID)
		where = append(where, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if f.WarehouseID != "" {
		args = append(args, f.WarehouseID)
		where = append(where, fmt.Sprintf("warehouse_id = $%d", len(args)))
	}
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM inventory_balances
		WHERE %s
		ORDER BY product_id, warehouse_id
		LIMIT $%d OFFSET $%d`,
		balanceColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("list balances: %w", err))
	}
	defer rows.Close()
	var list []*entity.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		list = append(list, b)
	}
	return list, classify(rows.Err())
}

func scanBalance(row pgx.Row) (*entity.Balance, error) {
	var b entity.Balance
	if err := row.Scan(&b.ID, &b.TenantID, &b.ProductID, &b.WarehouseID, &b.Quantity, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
