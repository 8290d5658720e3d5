package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
)

// WarehouseUseCase casos de uso CRUD para bodegas.
type WarehouseUseCase struct {
	txRunner inventory.TxRunner
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(txRunner inventory.TxRunner) *WarehouseUseCase {
	return &WarehouseUseCase{txRunner: txRunner}
}

// Create crea una nueva bodega. El nombre es único por tenant.
func (uc *WarehouseUseCase) Create(ctx context.Context, scope tenant.Scope, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	scope = scope.Strict()
	now := time.Now().UTC()
	warehouse := &entity.Warehouse{
		ID:        uuid.New().String(),
		TenantID:  scope.TenantID,
		Name:      in.Name,
		Address:   in.Address,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.txRunner.Run(ctx, scope, func(s inventory.Stores) error {
		return s.Warehouses.Create(ctx, scope, warehouse)
	})
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// GetByID obtiene una bodega por ID.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, scope tenant.Scope, id string) (*dto.WarehouseResponse, error) {
	var warehouse *entity.Warehouse
	err := uc.txRunner.Run(ctx, scope, func(s inventory.Stores) error {
		var err error
		warehouse, err = s.Warehouses.GetByID(ctx, scope, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, id)
	}
	return toWarehouseResponse(warehouse), nil
}

// Update actualiza una bodega.
func (uc *WarehouseUseCase) Update(ctx context.Context, scope tenant.Scope, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	scope = scope.Strict()
	var warehouse *entity.Warehouse
	err := uc.txRunner.Run(ctx, scope, func(s inventory.Stores) error {
		var err error
		warehouse, err = s.Warehouses.GetByID(ctx, scope, id)
		if err != nil {
			return err
		}
		if warehouse == nil {
			return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, id)
		}
		if in.Name != nil {
			warehouse.Name = *in.Name
		}
		if in.Address != nil {
			warehouse.Address = *in.Address
		}
		if in.IsActive != nil {
			warehouse.IsActive = *in.IsActive
		}
		warehouse.UpdatedAt = time.Now().UTC()
		return s.Warehouses.Update(ctx, scope, warehouse)
	})
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// List lista bodegas del tenant con paginación.
func (uc *WarehouseUseCase) List(ctx context.Context, scope tenant.Scope, limit, offset int) (*dto.WarehouseListResponse, error) {
	var list []*entity.Warehouse
	err := uc.txRunner.Run(ctx, scope, func(s inventory.Stores) error {
		var err error
		list, err = s.Warehouses.List(ctx, scope, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return &dto.WarehouseListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:        w.ID,
		TenantID:  w.TenantID,
		Name:      w.Name,
		Address:   w.Address,
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
