package entity

import "time"

// Warehouse representa una bodega o sucursal donde se almacena inventario (multi-bodega).
type Warehouse struct {
	ID        string
	TenantID  string
	Name      string // único por tenant
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
