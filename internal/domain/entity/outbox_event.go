package entity

import "time"

// Valores fijos del evento de outbox que emite el motor de movimientos.
const (
	AggregateStockMovement    = "StockMovement"
	EventTypeMovementRecorded = "inventory.movement.recorded"
	OutboxPayloadVersion      = 1
)

// OutboxEvent fila de outbox_events escrita en la misma transacción que el movimiento.
// PublishedAt queda en nil hasta que un publicador externo la procese.
type OutboxEvent struct {
	ID            string
	TenantID      string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	PublishedAt   *time.Time
	CreatedAt     time.Time
}
