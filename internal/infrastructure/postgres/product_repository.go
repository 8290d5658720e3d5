package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, tenant_id, sku, name, COALESCE(description, ''), unit, cost, price, is_active, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, scope tenant.Scope, product *entity.Product) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (id, tenant_id, sku, name, description, unit, cost, price, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11)`,
		product.ID, scope.TenantID, product.SKU, product.Name, product.Description, product.Unit,
		product.Cost, product.Price, product.IsActive, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return classify(fmt.Errorf("insert product: %w", err))
	}
	return nil
}

// GetByID obtiene un producto por ID. nil si no existe o es de otro tenant.
func (r *ProductRepo) GetByID(ctx context.Context, scope tenant.Scope, id string) (*entity.Product, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE ($1 OR tenant_id = $2) AND id = $3`,
		scope.Bypass, scope.TenantID, id,
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(fmt.Errorf("get product: %w", err))
	}
	return p, nil
}

// GetBySKU obtiene un producto del tenant por SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, scope tenant.Scope, sku string) (*entity.Product, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE tenant_id = $1 AND sku = $2`,
		scope.TenantID, sku,
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(fmt.Errorf("get product by sku: %w", err))
	}
	return p, nil
}

// Update actualiza un producto existente. El SKU no cambia.
func (r *ProductRepo) Update(ctx context.Context, scope tenant.Scope, product *entity.Product) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE products
		SET name = $3, description = NULLIF($4, ''), unit = $5, cost = $6, price = $7, is_active = $8, updated_at = $9
		WHERE id = $1 AND tenant_id = $2`,
		product.ID, scope.TenantID, product.Name, product.Description, product.Unit,
		product.Cost, product.Price, product.IsActive, product.UpdatedAt,
	)
	if err != nil {
		return classify(fmt.Errorf("update product: %w", err))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, product.ID)
	}
	return nil
}

// List lista productos con paginación, los más recientes primero.
func (r *ProductRepo) List(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE ($1 OR tenant_id = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`,
		scope.Bypass, scope.TenantID, limit, offset,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("list products: %w", err))
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, classify(rows.Err())
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Description, &p.Unit,
		&p.Cost, &p.Price, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
