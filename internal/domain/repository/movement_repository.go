package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
)

// MovementRepository puerto del ledger de movimientos (solo inserción y lectura).
type MovementRepository interface {
	// FindByIdempotencyKey devuelve nil si no hay movimiento con esa key en el tenant.
	FindByIdempotencyKey(ctx context.Context, scope tenant.Scope, key string) (*entity.Movement, error)
	// Append inserta el movimiento. Una key repetida en el tenant devuelve domain.ErrDuplicate.
	Append(ctx context.Context, scope tenant.Scope, movement *entity.Movement) error
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Movement, error)
	// ListByProduct kardex del producto, del más reciente al más antiguo.
	ListByProduct(ctx context.Context, scope tenant.Scope, productID string, limit, offset int) ([]*entity.Movement, error)
}
