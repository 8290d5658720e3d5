package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, scope tenant.Scope, product *entity.Product) error
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, scope tenant.Scope, sku string) (*entity.Product, error)
	Update(ctx context.Context, scope tenant.Scope, product *entity.Product) error
	List(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*entity.Product, error)
}
