package inventory_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// memDB: base de datos en memoria con transacciones serializadas.
// Cada Run trabaja sobre una copia del estado y la publica solo si fn no falla,
// así un error a mitad de camino no deja efectos parciales.
// ──────────────────────────────────────────────────────────────────────────────

type balanceKey struct{ tenant, product, warehouse string }

type memState struct {
	products   map[string]*entity.Product
	warehouses map[string]*entity.Warehouse
	balances   map[balanceKey]*entity.Balance
	movements  []*entity.Movement
	outbox     []*entity.OutboxEvent
}

func (s *memState) clone() *memState {
	c := &memState{
		products:   s.products,
		warehouses: s.warehouses,
		balances:   make(map[balanceKey]*entity.Balance, len(s.balances)),
		movements:  append([]*entity.Movement(nil), s.movements...),
		outbox:     append([]*entity.OutboxEvent(nil), s.outbox...),
	}
	for k, b := range s.balances {
		cp := *b
		c.balances[k] = &cp
	}
	return c
}

type memDB struct {
	mu        sync.Mutex
	state     *memState
	runs      int
	scopes    []tenant.Scope
	lockOrder []string

	// beforeAppend se ejecuta dentro de la tx justo antes de insertar el movimiento.
	beforeAppend func(db *memDB, m *entity.Movement)
	failOutbox   error
}

func newMemDB() *memDB {
	return &memDB{state: &memState{
		products:   map[string]*entity.Product{},
		warehouses: map[string]*entity.Warehouse{},
		balances:   map[balanceKey]*entity.Balance{},
	}}
}

var _ inventory.TxRunner = (*memDB)(nil)

// Run toma db.mu durante toda la transacción: las pruebas concurrentes sobre
// memDB nunca compiten por filas.
func (db *memDB) Run(ctx context.Context, scope tenant.Scope, fn func(s inventory.Stores) error) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.runs++
	db.scopes = append(db.scopes, scope)

	tx := &memTx{db: db, st: db.state.clone()}
	stores := inventory.Stores{
		Balances:   memBalances{tx},
		Movements:  memMovements{tx},
		Products:   memProducts{tx},
		Warehouses: memWarehouses{tx},
		Outbox:     memOutbox{tx},
	}
	if err := fn(stores); err != nil {
		return err
	}
	db.state = tx.st
	return nil
}

// commitDirect simula otra transacción que ya confirmó (solo desde hooks con el lock tomado).
func (db *memDB) commitDirect(m *entity.Movement) {
	db.state.movements = append(db.state.movements, m)
}

func (db *memDB) addProduct(tenantID, id string) {
	db.state.products[id] = &entity.Product{ID: id, TenantID: tenantID, SKU: "SKU-" + id[:4], Name: "Producto " + id[:4], Unit: "UND", IsActive: true}
}

func (db *memDB) addWarehouse(tenantID, id string) {
	db.state.warehouses[id] = &entity.Warehouse{ID: id, TenantID: tenantID, Name: "Bodega " + id[:4], IsActive: true}
}

func (db *memDB) balance(tenantID, productID, warehouseID string) decimal.Decimal {
	db.mu.Lock()
	defer db.mu.Unlock()
	if b, ok := db.state.balances[balanceKey{tenantID, productID, warehouseID}]; ok {
		return b.Quantity
	}
	return decimal.Zero
}

func (db *memDB) movementCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.state.movements)
}

func (db *memDB) outboxEvents() []*entity.OutboxEvent {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]*entity.OutboxEvent(nil), db.state.outbox...)
}

type memTx struct {
	db *memDB
	st *memState
}

func visible(scope tenant.Scope, tenantID string) bool {
	return scope.Bypass || scope.TenantID == tenantID
}

// ── balances ─────────────────────────────────────────────────────────────────

type memBalances struct{ tx *memTx }

func (r memBalances) CreateIfAbsent(_ context.Context, scope tenant.Scope, productID, warehouseID string) error {
	k := balanceKey{scope.TenantID, productID, warehouseID}
	if _, ok := r.tx.st.balances[k]; ok {
		return nil
	}
	r.tx.st.balances[k] = &entity.Balance{
		ID:          scope.TenantID + "/" + productID + "/" + warehouseID,
		TenantID:    scope.TenantID,
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    decimal.Zero,
	}
	return nil
}

func (r memBalances) GetForUpdate(_ context.Context, scope tenant.Scope, productID, warehouseID string) (*entity.Balance, error) {
	b, ok := r.tx.st.balances[balanceKey{scope.TenantID, productID, warehouseID}]
	if !ok {
		return nil, nil
	}
	r.tx.db.lockOrder = append(r.tx.db.lockOrder, warehouseID)
	cp := *b
	return &cp, nil
}

func (r memBalances) Get(ctx context.Context, scope tenant.Scope, productID, warehouseID string) (*entity.Balance, error) {
	for _, b := range r.tx.st.balances {
		if visible(scope, b.TenantID) && b.ProductID == productID && b.WarehouseID == warehouseID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memBalances) UpdateQuantity(_ context.Context, scope tenant.Scope, balanceID string, qty decimal.Decimal) error {
	if qty.IsNegative() {
		return domain.ErrInsufficientStock
	}
	for _, b := range r.tx.st.balances {
		if b.ID == balanceID && b.TenantID == scope.TenantID {
			b.Quantity = qty
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r memBalances) List(_ context.Context, scope tenant.Scope, f repository.BalanceFilter) ([]*entity.Balance, error) {
	var out []*entity.Balance
	for _, b := range r.tx.st.balances {
		if !visible(scope, b.TenantID) {
			continue
		}
		if f.ProductID != "" && b.ProductID != f.ProductID {
			continue
		}
		if f.WarehouseID != "" && b.WarehouseID != f.WarehouseID {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].WarehouseID < out[j].WarehouseID
	})
	return page(out, f.Limit, f.Offset), nil
}

// ── movements ────────────────────────────────────────────────────────────────

type memMovements struct{ tx *memTx }

func (r memMovements) FindByIdempotencyKey(_ context.Context, scope tenant.Scope, key string) (*entity.Movement, error) {
	for _, m := range r.tx.st.movements {
		if m.TenantID == scope.TenantID && m.IdempotencyKey != nil && *m.IdempotencyKey == key {
			return m, nil
		}
	}
	// Lo confirmado por otras transacciones también es visible (READ COMMITTED).
	for _, m := range r.tx.db.state.movements {
		if m.TenantID == scope.TenantID && m.IdempotencyKey != nil && *m.IdempotencyKey == key {
			return m, nil
		}
	}
	return nil, nil
}

func (r memMovements) Append(_ context.Context, scope tenant.Scope, m *entity.Movement) error {
	if hook := r.tx.db.beforeAppend; hook != nil {
		hook(r.tx.db, m)
	}
	if m.TenantID != scope.TenantID {
		return errors.New("tenant del movimiento distinto al scope")
	}
	if m.IdempotencyKey != nil {
		for _, list := range [][]*entity.Movement{r.tx.st.movements, r.tx.db.state.movements} {
			for _, other := range list {
				if other.TenantID == m.TenantID && other.IdempotencyKey != nil && *other.IdempotencyKey == *m.IdempotencyKey {
					return domain.ErrDuplicate
				}
			}
		}
	}
	r.tx.st.movements = append(r.tx.st.movements, m)
	return nil
}

func (r memMovements) GetByID(_ context.Context, scope tenant.Scope, id string) (*entity.Movement, error) {
	for _, m := range r.tx.st.movements {
		if m.ID == id && visible(scope, m.TenantID) {
			return m, nil
		}
	}
	return nil, nil
}

func (r memMovements) ListByProduct(_ context.Context, scope tenant.Scope, productID string, limit, offset int) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for i := len(r.tx.st.movements) - 1; i >= 0; i-- {
		m := r.tx.st.movements[i]
		if m.ProductID == productID && visible(scope, m.TenantID) {
			out = append(out, m)
		}
	}
	return page(out, limit, offset), nil
}

// ── products / warehouses / outbox ──────────────────────────────────────────

type memProducts struct{ tx *memTx }

func (r memProducts) Create(_ context.Context, scope tenant.Scope, p *entity.Product) error {
	r.tx.st.products[p.ID] = p
	return nil
}

func (r memProducts) GetByID(_ context.Context, scope tenant.Scope, id string) (*entity.Product, error) {
	p, ok := r.tx.st.products[id]
	if !ok || !visible(scope, p.TenantID) {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r memProducts) GetBySKU(_ context.Context, scope tenant.Scope, sku string) (*entity.Product, error) {
	for _, p := range r.tx.st.products {
		if p.TenantID == scope.TenantID && strings.EqualFold(p.SKU, sku) {
			return p, nil
		}
	}
	return nil, nil
}

func (r memProducts) Update(_ context.Context, scope tenant.Scope, p *entity.Product) error {
	r.tx.st.products[p.ID] = p
	return nil
}

func (r memProducts) List(_ context.Context, scope tenant.Scope, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.tx.st.products {
		if visible(scope, p.TenantID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return page(out, limit, offset), nil
}

type memWarehouses struct{ tx *memTx }

func (r memWarehouses) Create(_ context.Context, scope tenant.Scope, w *entity.Warehouse) error {
	r.tx.st.warehouses[w.ID] = w
	return nil
}

func (r memWarehouses) GetByID(_ context.Context, scope tenant.Scope, id string) (*entity.Warehouse, error) {
	w, ok := r.tx.st.warehouses[id]
	if !ok || !visible(scope, w.TenantID) {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r memWarehouses) Update(_ context.Context, scope tenant.Scope, w *entity.Warehouse) error {
	r.tx.st.warehouses[w.ID] = w
	return nil
}

func (r memWarehouses) List(_ context.Context, scope tenant.Scope, limit, offset int) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	for _, w := range r.tx.st.warehouses {
		if visible(scope, w.TenantID) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

type memOutbox struct{ tx *memTx }

func (r memOutbox) Append(_ context.Context, scope tenant.Scope, e *entity.OutboxEvent) error {
	if r.tx.db.failOutbox != nil {
		return r.tx.db.failOutbox
	}
	r.tx.st.outbox = append(r.tx.st.outbox, e)
	return nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
