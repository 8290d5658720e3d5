package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance saldo actual de un producto en una bodega dentro de un tenant.
// Se crea en cero la primera vez que un movimiento toca el par (producto, bodega).
type Balance struct {
	ID          string
	TenantID    string
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	UpdatedAt   time.Time
}
