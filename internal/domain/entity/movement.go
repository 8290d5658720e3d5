package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del ledger de inventario.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementTypeIN       MovementType = "IN"       // entrada a to_warehouse
	MovementTypeOUT      MovementType = "OUT"      // salida de from_warehouse
	MovementTypeTRANSFER MovementType = "TRANSFER" // traslado entre bodegas
	MovementTypeADJUST   MovementType = "ADJUST"   // fija el saldo a adjust_to_quantity
)

// Valid indica si el tipo es uno de los cuatro conocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeIN, MovementTypeOUT, MovementTypeTRANSFER, MovementTypeADJUST:
		return true
	}
	return false
}

// Movement entrada inmutable del ledger. Nunca se actualiza ni se elimina.
type Movement struct {
	ID               string
	TenantID         string
	Type             MovementType
	ProductID        string
	FromWarehouseID  *string
	ToWarehouseID    *string
	Quantity         decimal.Decimal
	AdjustToQuantity *decimal.Decimal // solo ADJUST
	Reference        *string
	IdempotencyKey   *string
	CreatedBy        *string
	CreatedAt        time.Time
}

// TargetWarehouseID devuelve la bodega afectada por un ADJUST (la única informada).
func (m *Movement) TargetWarehouseID() string {
	if m.ToWarehouseID != nil {
		return *m.ToWarehouseID
	}
	if m.FromWarehouseID != nil {
		return *m.FromWarehouseID
	}
	return ""
}
