package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del inventario (multi-bodega).
// El stock no vive aquí: se maneja por bodega en Balance.
type Product struct {
	ID          string
	TenantID    string
	SKU         string // código único por tenant
	Name        string
	Description string
	Unit        string
	Cost        decimal.Decimal
	Price       decimal.Decimal
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
