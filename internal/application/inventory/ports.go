package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
)

// Stores repositorios atados a una misma transacción.
type Stores struct {
	Balances   repository.BalanceRepository
	Movements  repository.MovementRepository
	Products   repository.ProductRepository
	Warehouses repository.WarehouseRepository
	Outbox     repository.OutboxRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD delimitada al tenant del scope.
// Si fn devuelve error se hace Rollback; si no, Commit. Un scope vacío se rechaza sin abrir la transacción.
type TxRunner interface {
	Run(ctx context.Context, scope tenant.Scope, fn func(s Stores) error) error
}

// MovementMetrics registra el resultado de cada movimiento. Puede ser nil.
type MovementMetrics interface {
	ObserveMovement(movementType, outcome string, elapsed time.Duration)
}

// KardexRenderer genera la representación PDF del kardex de un producto.
type KardexRenderer interface {
	RenderKardex(report KardexReport) ([]byte, error)
}
