package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
)

// kardexReportLimit máximo de movimientos incluidos en el PDF del kardex.
const kardexReportLimit = 500

// QueryUseCase consultas de solo lectura: saldos, kardex y movimiento por id.
// Usa el scope tal como llega, así que un ADMIN con bypass puede leer otros tenants.
type QueryUseCase struct {
	txRunner TxRunner
	renderer KardexRenderer
	now      func() time.Time
}

// NewQueryUseCase construye el caso de uso. renderer puede ser nil si no se exporta PDF.
func NewQueryUseCase(txRunner TxRunner, renderer KardexRenderer) *QueryUseCase {
	return &QueryUseCase{txRunner: txRunner, renderer: renderer, now: time.Now}
}

// ListBalances lista saldos filtrando opcionalmente por producto y/o bodega, ordenados por producto.
func (uc *QueryUseCase) ListBalances(ctx context.Context, scope tenant.Scope, f repository.BalanceFilter) (*dto.BalanceListResponse, error) {
	var list []*entity.Balance
	err := uc.txRunner.Run(ctx, scope, func(s Stores) error {
		var err error
		list, err = s.Balances.List(ctx, scope, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.BalanceResponse, 0, len(list))
	for _, b := range list {
		items = append(items, ToBalanceResponse(b))
	}
	return &dto.BalanceListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset},
	}, nil
}

// Kardex devuelve el historial del producto, del más reciente al más antiguo.
func (uc *QueryUseCase) Kardex(ctx context.Context, scope tenant.Scope, productID string, limit, offset int) (*dto.KardexResponse, error) {
	var list []*entity.Movement
	err := uc.txRunner.Run(ctx, scope, func(s Stores) error {
		product, err := s.Products.GetByID(ctx, scope, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
		}
		list, err = s.Movements.ListByProduct(ctx, scope, productID, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, ToMovementResponse(m))
	}
	return &dto.KardexResponse{
		ProductID: productID,
		Items:     items,
		Page:      dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// GetMovement obtiene un movimiento por id dentro del tenant.
func (uc *QueryUseCase) GetMovement(ctx context.Context, scope tenant.Scope, id string) (*dto.MovementResponse, error) {
	var mov *entity.Movement
	err := uc.txRunner.Run(ctx, scope, func(s Stores) error {
		var err error
		mov, err = s.Movements.GetByID(ctx, scope, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, id)
	}
	out := ToMovementResponse(mov)
	return &out, nil
}

// KardexReport datos que recibe el generador de PDF.
type KardexReport struct {
	Product     *entity.Product
	Balances    []*entity.Balance
	Movements   []*entity.Movement
	GeneratedAt time.Time
}

// KardexPDF arma el reporte del producto (saldos actuales y últimos movimientos) y lo renderiza.
func (uc *QueryUseCase) KardexPDF(ctx context.Context, scope tenant.Scope, productID string) ([]byte, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("kardex pdf: generador no configurado")
	}
	report := KardexReport{GeneratedAt: uc.now()}
	err := uc.txRunner.Run(ctx, scope, func(s Stores) error {
		product, err := s.Products.GetByID(ctx, scope, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
		}
		report.Product = product
		report.Balances, err = s.Balances.List(ctx, scope, repository.BalanceFilter{ProductID: productID, Limit: dto.MaxLimit})
		if err != nil {
			return err
		}
		report.Movements, err = s.Movements.ListByProduct(ctx, scope, productID, kardexReportLimit, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return uc.renderer.RenderKardex(report)
}

// ToMovementResponse convierte un movimiento a su representación de salida.
func ToMovementResponse(m *entity.Movement) dto.MovementResponse {
	out := dto.MovementResponse{
		ID:              m.ID,
		Type:            string(m.Type),
		ProductID:       m.ProductID,
		FromWarehouseID: m.FromWarehouseID,
		ToWarehouseID:   m.ToWarehouseID,
		Quantity:        inventory.Format(m.Quantity),
		Reference:       m.Reference,
		IdempotencyKey:  m.IdempotencyKey,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
	if m.AdjustToQuantity != nil {
		s := inventory.Format(*m.AdjustToQuantity)
		out.AdjustToQuantity = &s
	}
	return out
}

// ToBalanceResponse convierte un saldo a su representación de salida.
func ToBalanceResponse(b *entity.Balance) dto.BalanceResponse {
	return dto.BalanceResponse{
		ProductID:   b.ProductID,
		WarehouseID: b.WarehouseID,
		Quantity:    inventory.Format(b.Quantity),
		UpdatedAt:   b.UpdatedAt,
	}
}
