package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
	"github.com/shopspring/decimal"
)

// BalanceFilter filtros opcionales del listado de saldos.
type BalanceFilter struct {
	ProductID   string
	WarehouseID string
	Limit       int
	Offset      int
}

// BalanceRepository puerto de persistencia de saldos por (tenant, producto, bodega).
// Los métodos de escritura solo son seguros dentro de una transacción.
type BalanceRepository interface {
	// CreateIfAbsent inserta el saldo en cero si no existe; no bloquea ni falla si ya existe.
	CreateIfAbsent(ctx context.Context, scope tenant.Scope, productID, warehouseID string) error
	// GetForUpdate obtiene el saldo con bloqueo exclusivo (SELECT ... FOR UPDATE). nil si no existe.
	GetForUpdate(ctx context.Context, scope tenant.Scope, productID, warehouseID string) (*entity.Balance, error)
	UpdateQuantity(ctx context.Context, scope tenant.Scope, balanceID string, qty decimal.Decimal) error
	Get(ctx context.Context, scope tenant.Scope, productID, warehouseID string) (*entity.Balance, error)
	List(ctx context.Context, scope tenant.Scope, f BalanceFilter) ([]*entity.Balance, error)
}
