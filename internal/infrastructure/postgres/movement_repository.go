package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, tenant_id, type, product_id, from_warehouse_id, to_warehouse_id,
	qty, adjust_to_qty, reference, idempotency_key, created_by, created_at`

// MovementRepo implementación del ledger sobre stock_movements (solo INSERT y SELECT).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// FindByIdempotencyKey busca por (tenant, idempotency_key).
func (r *MovementRepo) FindByIdempotencyKey(ctx context.Context, scope tenant.Scope, key string) (*entity.Movement, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+movementColumns+`
		FROM stock_movements
		WHERE tenant_id = $1 AND idempotency_key = $2`,
		scope.TenantID, key,
	)
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(fmt.Errorf("find movement by idempotency key: %w", err))
	}
	return m, nil
}

// Append inserta el movimiento. uq_movement_tenant_idempotency se traduce a domain.ErrDuplicate.
func (r *MovementRepo) Append(ctx context.Context, scope tenant.Scope, m *entity.Movement) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_movements (`+movementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.ID, scope.TenantID, string(m.Type), m.ProductID, m.FromWarehouseID, m.ToWarehouseID,
		m.Quantity, m.AdjustToQuantity, m.Reference, m.IdempotencyKey, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return classify(fmt.Errorf("insert movement: %w", err))
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Movement, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+movementColumns+`
		FROM stock_movements
		WHERE ($1 OR tenant_id = $2) AND id = $3`,
		scope.Bypass, scope.TenantID, id,
	)
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(fmt.Errorf("get movement: %w", err))
	}
	return m, nil
}

// ListByProduct kardex del producto ordenado por fecha descendente.
func (r *MovementRepo) ListByProduct(ctx context.Context, scope tenant.Scope, productID string, limit, offset int) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+movementColumns+`
		FROM stock_movements
		WHERE ($1 OR tenant_id = $2) AND product_id = $3
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5`,
		scope.Bypass, scope.TenantID, productID, limit, offset,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("list movements: %w", err))
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, classify(rows.Err())
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var (
		m   entity.Movement
		typ string
	)
	if err := row.Scan(&m.ID, &m.TenantID, &typ, &m.ProductID, &m.FromWarehouseID, &m.ToWarehouseID,
		&m.Quantity, &m.AdjustToQuantity, &m.Reference, &m.IdempotencyKey, &m.CreatedBy, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	return &m, nil
}
