package inventory

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
	"github.com/shopspring/decimal"
)

// balanceStore aplica la aritmética de saldos sobre filas bloqueadas de una transacción.
type balanceStore struct {
	repo  repository.BalanceRepository
	scope tenant.Scope
}

func newBalanceStore(repo repository.BalanceRepository, scope tenant.Scope) *balanceStore {
	return &balanceStore{repo: repo, scope: scope.Strict()}
}

// acquire devuelve el saldo bloqueado (SELECT FOR UPDATE). Si no existe lo inserta en cero
// con ON CONFLICT DO NOTHING y vuelve a leerlo con bloqueo.
func (b *balanceStore) acquire(ctx context.Context, productID, warehouseID string) (*entity.Balance, error) {
	bal, err := b.repo.GetForUpdate(ctx, b.scope, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if bal != nil {
		return bal, nil
	}
	if err := b.repo.CreateIfAbsent(ctx, b.scope, productID, warehouseID); err != nil {
		return nil, err
	}
	bal, err = b.repo.GetForUpdate(ctx, b.scope, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return nil, fmt.Errorf("balance %s/%s no visible después de crearlo", productID, warehouseID)
	}
	return bal, nil
}

// acquirePair bloquea los saldos de dos bodegas en orden ascendente de UUID,
// sin importar cuál es origen y cuál destino.
func (b *balanceStore) acquirePair(ctx context.Context, productID, fromID, toID string) (from, to *entity.Balance, err error) {
	first, second := fromID, toID
	if lockOrder(fromID, toID) > 0 {
		first, second = toID, fromID
	}
	firstBal, err := b.acquire(ctx, productID, first)
	if err != nil {
		return nil, nil, err
	}
	secondBal, err := b.acquire(ctx, productID, second)
	if err != nil {
		return nil, nil, err
	}
	if first == fromID {
		return firstBal, secondBal, nil
	}
	return secondBal, firstBal, nil
}

func (b *balanceStore) increase(ctx context.Context, bal *entity.Balance, amount decimal.Decimal) error {
	next, err := inventory.Increase(bal.Quantity, amount)
	if err != nil {
		return err
	}
	return b.write(ctx, bal, next)
}

// decrease falla con domain.ErrInsufficientStock sin escribir si el saldo quedaría negativo.
func (b *balanceStore) decrease(ctx context.Context, bal *entity.Balance, amount decimal.Decimal) error {
	next, err := inventory.Decrease(bal.Quantity, amount)
	if err != nil {
		return err
	}
	return b.write(ctx, bal, next)
}

func (b *balanceStore) setExact(ctx context.Context, bal *entity.Balance, target decimal.Decimal) error {
	next, err := inventory.SetExact(target)
	if err != nil {
		return err
	}
	return b.write(ctx, bal, next)
}

func (b *balanceStore) write(ctx context.Context, bal *entity.Balance, qty decimal.Decimal) error {
	if err := b.repo.UpdateQuantity(ctx, b.scope, bal.ID, qty); err != nil {
		return err
	}
	bal.Quantity = qty
	return nil
}

// lockOrder compara dos ids de bodega por sus bytes de UUID; ids no parseables se comparan como texto.
func lockOrder(a, b string) int {
	ua, errA := uuid.Parse(a)
	ub, errB := uuid.Parse(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return bytes.Compare(ua[:], ub[:])
}
