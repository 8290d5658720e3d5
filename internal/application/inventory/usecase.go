package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Longitud máxima de reference e idempotency_key (varchar(120)).
const maxTextLen = 120

// Resultados que se reportan a métricas y trazas.
const (
	OutcomeCreated           = "created"
	OutcomeReplayed          = "replayed"
	OutcomeInvalid           = "invalid"
	OutcomeNotFound          = "not_found"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeUnavailable       = "unavailable"
	OutcomeError             = "error"
)

// MovementUseCase registra movimientos de inventario de forma transaccional
// (IN, OUT, TRANSFER, ADJUST) con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
type MovementUseCase struct {
	txRunner      TxRunner
	log           *logger.Logger
	metrics       MovementMetrics
	tracer        trace.Tracer
	outboxEnabled bool
	now           func() time.Time
	newID         func() string
}

// Option configura MovementUseCase.
type Option func(*MovementUseCase)

// WithMetrics registra cada movimiento en m.
func WithMetrics(m MovementMetrics) Option {
	return func(uc *MovementUseCase) { uc.metrics = m }
}

// WithTracer reemplaza el tracer global de OpenTelemetry.
func WithTracer(t trace.Tracer) Option {
	return func(uc *MovementUseCase) { uc.tracer = t }
}

// WithOutbox activa o desactiva el evento de outbox por movimiento (activo por defecto).
func WithOutbox(enabled bool) Option {
	return func(uc *MovementUseCase) { uc.outboxEnabled = enabled }
}

// WithClock fija la fuente de tiempo (tests).
func WithClock(now func() time.Time) Option {
	return func(uc *MovementUseCase) { uc.now = now }
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(txRunner TxRunner, log *logger.Logger, opts ...Option) *MovementUseCase {
	if log == nil {
		log = logger.Nop()
	}
	uc := &MovementUseCase{
		txRunner:      txRunner,
		log:           log,
		tracer:        otel.Tracer("github.com/jhoicas/inventario-ledger/internal/application/inventory"),
		outboxEnabled: true,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// MovementInputDTO entrada para registrar un movimiento de inventario.
// IN requiere ToWarehouseID; OUT requiere FromWarehouseID; TRANSFER ambos y distintos;
// ADJUST requiere AdjustToQuantity y exactamente una bodega.
type MovementInputDTO struct {
	Scope            tenant.Scope
	UserID           string
	Role             string
	Type             entity.MovementType
	ProductID        string
	FromWarehouseID  string
	ToWarehouseID    string
	Quantity         decimal.Decimal
	AdjustToQuantity *decimal.Decimal
	Reference        string
	IdempotencyKey   string
}

// MovementResult movimiento persistido. Replayed indica que se devolvió uno existente por idempotency key.
type MovementResult struct {
	Movement *entity.Movement
	Replayed bool
}

// Move valida la entrada, abre una transacción, bloquea los saldos afectados, aplica la lógica
// según el tipo, agrega el movimiento al ledger y el evento al outbox, y hace Commit o Rollback.
func (uc *MovementUseCase) Move(ctx context.Context, in MovementInputDTO) (*MovementResult, error) {
	start := time.Now()
	ctx, span := uc.tracer.Start(ctx, "inventory.Move", trace.WithAttributes(
		attribute.String("tenant.id", in.Scope.TenantID),
		attribute.String("movement.type", string(in.Type)),
		attribute.String("product.id", in.ProductID),
	))
	defer span.End()

	res, err := uc.move(ctx, in)

	outcome := outcomeOf(res, err)
	if uc.metrics != nil {
		uc.metrics.ObserveMovement(string(in.Type), outcome, time.Since(start))
	}
	span.SetAttributes(attribute.String("movement.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		if outcome == OutcomeError {
			uc.log.Error().Err(err).
				Str("tenant_id", in.Scope.TenantID).
				Str("type", string(in.Type)).
				Msg("movimiento de inventario falló")
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("movement.id", res.Movement.ID), attribute.Bool("movement.replayed", res.Replayed))
	return res, nil
}

func (uc *MovementUseCase) move(ctx context.Context, in MovementInputDTO) (*MovementResult, error) {
	scope := in.Scope.Strict()
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	mov, err := uc.buildMovement(scope, in)
	if err != nil {
		return nil, err
	}

	var result *MovementResult
	err = uc.txRunner.Run(ctx, scope, func(s Stores) error {
		if mov.IdempotencyKey != nil {
			existing, err := s.Movements.FindByIdempotencyKey(ctx, scope, *mov.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				uc.logReplay(existing, mov)
				result = &MovementResult{Movement: existing, Replayed: true}
				return nil
			}
		}
		if err := checkReferences(ctx, s, scope, mov); err != nil {
			return err
		}
		if err := applyBalances(ctx, newBalanceStore(s.Balances, scope), mov); err != nil {
			return err
		}
		if err := s.Movements.Append(ctx, scope, mov); err != nil {
			return err
		}
		if uc.outboxEnabled {
			event, err := newMovementEvent(mov, in.Role, uc.newID(), uc.now())
			if err != nil {
				return err
			}
			if err := s.Outbox.Append(ctx, scope, event); err != nil {
				return err
			}
		}
		result = &MovementResult{Movement: mov}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) && mov.IdempotencyKey != nil {
			return uc.converge(ctx, scope, *mov.IdempotencyKey, mov)
		}
		return nil, err
	}
	return result, nil
}

// converge resuelve la carrera de dos peticiones con la misma idempotency key: la perdedora
// descartó su transacción y ahora lee el movimiento ganador en una transacción nueva.
func (uc *MovementUseCase) converge(ctx context.Context, scope tenant.Scope, key string, attempted *entity.Movement) (*MovementResult, error) {
	var winner *entity.Movement
	err := uc.txRunner.Run(ctx, scope, func(s Stores) error {
		m, err := s.Movements.FindByIdempotencyKey(ctx, scope, key)
		winner = m
		return err
	})
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, fmt.Errorf("%w: idempotency_key %q en conflicto", domain.ErrConflict, key)
	}
	uc.log.Info().
		Str("tenant_id", scope.TenantID).
		Str("idempotency_key", key).
		Str("movement_id", winner.ID).
		Msg("carrera de idempotencia resuelta con el movimiento existente")
	uc.logReplay(winner, attempted)
	return &MovementResult{Movement: winner, Replayed: true}, nil
}

func (uc *MovementUseCase) logReplay(existing, attempted *entity.Movement) {
	ev := uc.log.Debug()
	if !samePayload(existing, attempted) {
		ev = uc.log.Warn()
	}
	ev.Str("tenant_id", existing.TenantID).
		Str("movement_id", existing.ID).
		Bool("same_payload", samePayload(existing, attempted)).
		Msg("movimiento repetido por idempotency_key")
}

// buildMovement hace toda la validación estática antes de abrir la transacción.
func (uc *MovementUseCase) buildMovement(scope tenant.Scope, in MovementInputDTO) (*entity.Movement, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: type %q", domain.ErrInvalidInput, in.Type)
	}
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		return nil, fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	if err := inventory.ValidateQuantity(in.Quantity); err != nil {
		return nil, err
	}
	from := optionalString(in.FromWarehouseID)
	to := optionalString(in.ToWarehouseID)
	for _, id := range []*string{&productID, from, to} {
		if id == nil {
			continue
		}
		if _, err := uuid.Parse(*id); err != nil {
			return nil, fmt.Errorf("%w: id %q no es UUID", domain.ErrInvalidInput, *id)
		}
	}

	var adjustTo *decimal.Decimal
	switch in.Type {
	case entity.MovementTypeIN:
		if to == nil {
			return nil, fmt.Errorf("%w: IN requiere to_warehouse_id", domain.ErrInvalidInput)
		}
	case entity.MovementTypeOUT:
		if from == nil {
			return nil, fmt.Errorf("%w: OUT requiere from_warehouse_id", domain.ErrInvalidInput)
		}
	case entity.MovementTypeTRANSFER:
		if from == nil || to == nil {
			return nil, fmt.Errorf("%w: TRANSFER requiere from_warehouse_id y to_warehouse_id", domain.ErrInvalidInput)
		}
		if strings.EqualFold(*from, *to) {
			return nil, fmt.Errorf("%w: origen y destino deben ser distintos", domain.ErrInvalidInput)
		}
	case entity.MovementTypeADJUST:
		if in.AdjustToQuantity == nil {
			return nil, fmt.Errorf("%w: ADJUST requiere adjust_to_quantity", domain.ErrInvalidInput)
		}
		if err := inventory.ValidateTarget(*in.AdjustToQuantity); err != nil {
			return nil, err
		}
		if (from == nil) == (to == nil) {
			return nil, fmt.Errorf("%w: ADJUST requiere exactamente una bodega", domain.ErrInvalidInput)
		}
		v := *in.AdjustToQuantity
		adjustTo = &v
	}
	if in.AdjustToQuantity != nil && in.Type != entity.MovementTypeADJUST {
		return nil, fmt.Errorf("%w: adjust_to_quantity solo aplica a ADJUST", domain.ErrInvalidInput)
	}

	reference := optionalString(in.Reference)
	key := optionalString(in.IdempotencyKey)
	if reference != nil && len([]rune(*reference)) > maxTextLen {
		return nil, fmt.Errorf("%w: reference supera %d caracteres", domain.ErrInvalidInput, maxTextLen)
	}
	if key != nil && len([]rune(*key)) > maxTextLen {
		return nil, fmt.Errorf("%w: idempotency_key supera %d caracteres", domain.ErrInvalidInput, maxTextLen)
	}

	return &entity.Movement{
		ID:               uc.newID(),
		TenantID:         scope.TenantID,
		Type:             in.Type,
		ProductID:        productID,
		FromWarehouseID:  from,
		ToWarehouseID:    to,
		Quantity:         in.Quantity,
		AdjustToQuantity: adjustTo,
		Reference:        reference,
		IdempotencyKey:   key,
		CreatedBy:        optionalString(in.UserID),
		CreatedAt:        uc.now(),
	}, nil
}

// checkReferences verifica que producto y bodegas existan en el tenant; de otro tenant es NotFound.
func checkReferences(ctx context.Context, s Stores, scope tenant.Scope, mov *entity.Movement) error {
	product, err := s.Products.GetByID(ctx, scope, mov.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, mov.ProductID)
	}
	for _, id := range []*string{mov.FromWarehouseID, mov.ToWarehouseID} {
		if id == nil {
			continue
		}
		wh, err := s.Warehouses.GetByID(ctx, scope, *id)
		if err != nil {
			return err
		}
		if wh == nil {
			return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, *id)
		}
	}
	return nil
}

// applyBalances transforma los saldos según el tipo. Cada saldo se lee bloqueado dentro de la tx.
func applyBalances(ctx context.Context, store *balanceStore, mov *entity.Movement) error {
	switch mov.Type {
	case entity.MovementTypeIN:
		bal, err := store.acquire(ctx, mov.ProductID, *mov.ToWarehouseID)
		if err != nil {
			return err
		}
		return store.increase(ctx, bal, mov.Quantity)
	case entity.MovementTypeOUT:
		bal, err := store.acquire(ctx, mov.ProductID, *mov.FromWarehouseID)
		if err != nil {
			return err
		}
		return store.decrease(ctx, bal, mov.Quantity)
	case entity.MovementTypeTRANSFER:
		from, to, err := store.acquirePair(ctx, mov.ProductID, *mov.FromWarehouseID, *mov.ToWarehouseID)
		if err != nil {
			return err
		}
		if err := store.decrease(ctx, from, mov.Quantity); err != nil {
			return err
		}
		return store.increase(ctx, to, mov.Quantity)
	case entity.MovementTypeADJUST:
		bal, err := store.acquire(ctx, mov.ProductID, mov.TargetWarehouseID())
		if err != nil {
			return err
		}
		return store.setExact(ctx, bal, *mov.AdjustToQuantity)
	}
	return fmt.Errorf("%w: type %q", domain.ErrInvalidInput, mov.Type)
}

func outcomeOf(res *MovementResult, err error) string {
	switch {
	case err == nil && res != nil && res.Replayed:
		return OutcomeReplayed
	case err == nil:
		return OutcomeCreated
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrMissingScope):
		return OutcomeInvalid
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return OutcomeInsufficientStock
	case errors.Is(err, domain.ErrUnavailable):
		return OutcomeUnavailable
	}
	return OutcomeError
}

func samePayload(a, b *entity.Movement) bool {
	return a.Type == b.Type &&
		a.ProductID == b.ProductID &&
		a.Quantity.Equal(b.Quantity) &&
		equalPtr(a.FromWarehouseID, b.FromWarehouseID) &&
		equalPtr(a.ToWarehouseID, b.ToWarehouseID)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return strings.EqualFold(*a, *b)
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
