package inventory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
)

// ActorRef identifica quién originó el evento.
type ActorRef struct {
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
}

// PayloadEnvelope estructura estable del payload guardado en outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// MovementRecorded datos del evento inventory.movement.recorded.
type MovementRecorded struct {
	MovementID       string  `json:"movementId"`
	TenantID         string  `json:"tenantId"`
	Type             string  `json:"type"`
	ProductID        string  `json:"productId"`
	FromWarehouseID  *string `json:"fromWarehouseId,omitempty"`
	ToWarehouseID    *string `json:"toWarehouseId,omitempty"`
	Quantity         string  `json:"quantity"`
	AdjustToQuantity *string `json:"adjustToQuantity,omitempty"`
	Reference        *string `json:"reference,omitempty"`
	CreatedAt        string  `json:"createdAt"`
}

func newMovementEvent(mov *entity.Movement, role, eventID string, now time.Time) (*entity.OutboxEvent, error) {
	data := MovementRecorded{
		MovementID:      mov.ID,
		TenantID:        mov.TenantID,
		Type:            string(mov.Type),
		ProductID:       mov.ProductID,
		FromWarehouseID: mov.FromWarehouseID,
		ToWarehouseID:   mov.ToWarehouseID,
		Quantity:        inventory.Format(mov.Quantity),
		Reference:       mov.Reference,
		CreatedAt:       mov.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if mov.AdjustToQuantity != nil {
		s := inventory.Format(*mov.AdjustToQuantity)
		data.AdjustToQuantity = &s
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal movement event: %w", err)
	}
	envelope := PayloadEnvelope{
		Version:    entity.OutboxPayloadVersion,
		EventID:    eventID,
		OccurredAt: now,
		Data:       raw,
	}
	if mov.CreatedBy != nil || role != "" {
		actor := &ActorRef{Role: role}
		if mov.CreatedBy != nil {
			actor.UserID = *mov.CreatedBy
		}
		envelope.Actor = actor
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal outbox envelope: %w", err)
	}
	return &entity.OutboxEvent{
		ID:            eventID,
		TenantID:      mov.TenantID,
		AggregateType: entity.AggregateStockMovement,
		AggregateID:   mov.ID,
		EventType:     entity.EventTypeMovementRecorded,
		Payload:       payload,
		CreatedAt:     now,
	}, nil
}
