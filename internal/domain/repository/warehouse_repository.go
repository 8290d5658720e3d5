package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
)

// WarehouseRepository define el puerto de persistencia para Warehouse (DIP).
type WarehouseRepository interface {
	Create(ctx context.Context, scope tenant.Scope, warehouse *entity.Warehouse) error
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Warehouse, error)
	Update(ctx context.Context, scope tenant.Scope, warehouse *entity.Warehouse) error
	List(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*entity.Warehouse, error)
}
