package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
)

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo escribe eventos en outbox_events dentro de la transacción del llamador.
type OutboxRepo struct {
	q Querier
}

// NewOutboxRepository construye el adaptador. Pasar la tx del caso de uso.
func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

// Append inserta el evento; published_at queda NULL hasta que un publicador lo procese.
func (r *OutboxRepo) Append(ctx context.Context, scope tenant.Scope, e *entity.OutboxEvent) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO outbox_events (id, tenant_id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, scope.TenantID, e.AggregateType, e.AggregateID, e.EventType, e.Payload, e.CreatedAt,
	)
	if err != nil {
		return classify(fmt.Errorf("insert outbox event: %w", err))
	}
	return nil
}
