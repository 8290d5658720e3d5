package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// quantity y adjust_to_quantity aceptan número o string JSON y se leen sin pasar por float.
type RegisterMovementRequest struct {
	Type             string           `json:"type" validate:"required,oneof=IN OUT TRANSFER ADJUST"`
	ProductID        string           `json:"product_id" validate:"required,uuid"`
	Quantity         decimal.Decimal  `json:"quantity"`
	FromWarehouseID  string           `json:"from_warehouse_id,omitempty" validate:"omitempty,uuid"`
	ToWarehouseID    string           `json:"to_warehouse_id,omitempty" validate:"omitempty,uuid"`
	Reference        string           `json:"reference,omitempty" validate:"omitempty,max=120"`
	IdempotencyKey   string           `json:"idempotency_key,omitempty" validate:"omitempty,max=120"`
	AdjustToQuantity *decimal.Decimal `json:"adjust_to_quantity,omitempty"`
}

// MovementResponse salida de un movimiento. Las cantidades van como string con 3 decimales.
type MovementResponse struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	ProductID        string    `json:"product_id"`
	FromWarehouseID  *string   `json:"from_warehouse_id"`
	ToWarehouseID    *string   `json:"to_warehouse_id"`
	Quantity         string    `json:"quantity"`
	AdjustToQuantity *string   `json:"adjust_to_quantity,omitempty"`
	Reference        *string   `json:"reference"`
	IdempotencyKey   *string   `json:"idempotency_key,omitempty"`
	CreatedBy        *string   `json:"created_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// BalanceResponse saldo de un producto en una bodega.
type BalanceResponse struct {
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	Quantity    string    `json:"quantity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BalanceListResponse lista paginada de saldos.
type BalanceListResponse struct {
	Items []BalanceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// KardexResponse historial de movimientos de un producto, del más reciente al más antiguo.
type KardexResponse struct {
	ProductID string             `json:"product_id"`
	Items     []MovementResponse `json:"items"`
	Page      PageResponse       `json:"page"`
}
