package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
)

// OutboxRepository sumidero de eventos de dominio; escribe en la misma transacción del llamador.
type OutboxRepository interface {
	Append(ctx context.Context, scope tenant.Scope, event *entity.OutboxEvent) error
}
