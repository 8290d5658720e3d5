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

// ProductUseCase casos de uso CRUD para productos. El stock se maneja vía movimientos.
type ProductUseCase struct {
	txRunner inventory.TxRunner
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(txRunner inventory.TxRunner) *ProductUseCase {
	return &ProductUseCase{txRunner: txRunner}
}

// Create crea un nuevo producto. El SKU es único por tenant.
func (uc *ProductUseCase) Create(ctx context.Context, scope tenant.Scope, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	scope = scope.Strict()
	if in.Cost.IsNegative() || in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: cost y price no pueden ser negativos", domain.ErrInvalidInput)
	}
	now := time.Now().UTC()
	product := &entity.Product{
		ID:          uuid.New().String(),
		TenantID:    scope.TenantID,
		SKU:         in.SKU,
		Name:        in.Name,
		Description: in.Description,
		Unit:        in.Unit,
		Cost:        in.Cost.Round(2),
		Price:       in.Price.Round(2),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := uc.txRunner.Run(ctx, scope, func(s inventory.Stores) error {
		existing, err := s.Products.GetBySKU(ctx, scope, in.SKU)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		return s.Products.Create(ctx, scope, product)
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, scope tenant.Scope, id string) (*dto.ProductResponse, error) {
	var product *entity.Product
	err := uc.txRunner.Run(ctx, scope, func(s inventory.Stores) error {
		var err error
		product, err = s.Products.GetByID(ctx, scope, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	return toProductResponse(product), nil
}

// Update actualiza un producto. SKU y stock no se modifican aquí.
func (uc *ProductUseCase) Update(ctx context.Context, scope tenant.Scope, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	scope = scope.Strict()
	var product *entity.Product
	err := uc.txRunner.Run(ctx, scope, func(s inventory.Stores) error {
		var err error
		product, err = s.Products.GetByID(ctx, scope, id)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		if in.Name != nil {
			product.Name = *in.Name
		}
		if in.Description != nil {
			product.Description = *in.Description
		}
		if in.Unit != nil {
			product.Unit = *in.Unit
		}
		if in.Cost != nil {
			if in.Cost.IsNegative() {
				return fmt.Errorf("%w: cost negativo", domain.ErrInvalidInput)
			}
			product.Cost = in.Cost.Round(2)
		}
		if in.Price != nil {
			if in.Price.IsNegative() {
				return fmt.Errorf("%w: price negativo", domain.ErrInvalidInput)
			}
			product.Price = in.Price.Round(2)
		}
		if in.IsActive != nil {
			product.IsActive = *in.IsActive
		}
		product.UpdatedAt = time.Now().UTC()
		return s.Products.Update(ctx, scope, product)
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos del tenant con paginación.
func (uc *ProductUseCase) List(ctx context.Context, scope tenant.Scope, limit, offset int) (*dto.ProductListResponse, error) {
	var list []*entity.Product
	err := uc.txRunner.Run(ctx, scope, func(s inventory.Stores) error {
		var err error
		list, err = s.Products.List(ctx, scope, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:          p.ID,
		TenantID:    p.TenantID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Unit:        p.Unit,
		Cost:        p.Cost,
		Price:       p.Price,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
