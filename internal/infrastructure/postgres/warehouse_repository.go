package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

const warehouseColumns = `id, tenant_id, name, COALESCE(address, ''), is_active, created_at, updated_at`

// WarehouseRepo implementación del puerto WarehouseRepository sobre PostgreSQL.
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador de persistencia para bodegas.
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

// Create persiste una nueva bodega. Nombre repetido en el tenant devuelve domain.ErrDuplicate.
func (r *WarehouseRepo) Create(ctx context.Context, scope tenant.Scope, w *entity.Warehouse) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO warehouses (id, tenant_id, name, address, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)`,
		w.ID, scope.TenantID, w.Name, w.Address, w.IsActive, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return classify(fmt.Errorf("insert warehouse: %w", err))
	}
	return nil
}

// GetByID obtiene una bodega por ID.
func (r *WarehouseRepo) GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Warehouse, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+warehouseColumns+`
		FROM warehouses WHERE ($1 OR tenant_id = $2) AND id = $3`,
		scope.Bypass, scope.TenantID, id,
	)
	w, err := scanWarehouse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(fmt.Errorf("get warehouse: %w", err))
	}
	return w, nil
}

// Update actualiza una bodega existente.
func (r *WarehouseRepo) Update(ctx context.Context, scope tenant.Scope, w *entity.Warehouse) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE warehouses SET name = $3, address = NULLIF($4, ''), is_active = $5, updated_at = $6
		WHERE id = $1 AND tenant_id = $2`,
		w.ID, scope.TenantID, w.Name, w.Address, w.IsActive, w.UpdatedAt,
	)
	if err != nil {
		return classify(fmt.Errorf("update warehouse: %w", err))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, w.ID)
	}
	return nil
}

// List lista bodegas ordenadas por nombre.
func (r *WarehouseRepo) List(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*entity.Warehouse, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+warehouseColumns+`
		FROM warehouses WHERE ($1 OR tenant_id = $2)
		ORDER BY name, id
		LIMIT $3 OFFSET $4`,
		scope.Bypass, scope.TenantID, limit, offset,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("list warehouses: %w", err))
	}
	defer rows.Close()
	var list []*entity.Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		list = append(list, w)
	}
	return list, classify(rows.Err())
}

func scanWarehouse(row pgx.Row) (*entity.Warehouse, error) {
	var w entity.Warehouse
	if err := row.Scan(&w.ID, &w.TenantID, &w.Name, &w.Address, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}
