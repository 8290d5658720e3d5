package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseQuantity_EscalaTres(t *testing.T) {
	q, err := inventory.ParseQuantity("12.345")
	require.NoError(t, err)
	assert.Equal(t, "12.345", inventory.Format(q))

	_, err = inventory.ParseQuantity("1.0001")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "más de tres decimales debe rechazarse")

	_, err = inventory.ParseQuantity("abc")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidateQuantity(t *testing.T) {
	assert.NoError(t, inventory.ValidateQuantity(d("0.001")))
	assert.ErrorIs(t, inventory.ValidateQuantity(decimal.Zero), domain.ErrInvalidInput)
	assert.ErrorIs(t, inventory.ValidateQuantity(d("-1")), domain.ErrInvalidInput)
	assert.ErrorIs(t, inventory.ValidateQuantity(d("100000000000")), domain.ErrInvalidInput)
}

func TestValidateQuantity_ExponenteExtremo(t *testing.T) {
	for _, raw := range []string{"1e-10000000", "1e10000000", "0e-10000000", "5e-19", "1e15"} {
		start := time.Now()
		err := inventory.ValidateQuantity(d(raw))
		assert.ErrorIs(t, err, domain.ErrInvalidInput, raw)
		assert.Less(t, time.Since(start), 100*time.Millisecond, raw)
	}
	assert.ErrorIs(t, inventory.ValidateTarget(d("0e-10000000")), domain.ErrInvalidInput)

	_, err := inventory.ParseQuantity("1e-10000000")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Ceros a la derecha dentro del rango siguen siendo válidos.
	assert.NoError(t, inventory.ValidateQuantity(d("1.500000000000000000")))
	assert.NoError(t, inventory.ValidateQuantity(d("2e3")))
}

func TestValidateTarget_PermiteCero(t *testing.T) {
	assert.NoError(t, inventory.ValidateTarget(decimal.Zero))
	assert.ErrorIs(t, inventory.ValidateTarget(d("-0.001")), domain.ErrInvalidInput)
}

// Frontera: retirar exactamente el saldo deja cero; retirar saldo + 0.001 falla.
func TestDecrease_Frontera(t *testing.T) {
	next, err := inventory.Decrease(d("30"), d("30"))
	require.NoError(t, err)
	assert.True(t, next.IsZero())

	next, err = inventory.Decrease(d("30"), d("30.001"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "30.000", inventory.Format(next), "el saldo no cambia cuando falla")
}

func TestIncrease_Maximo(t *testing.T) {
	next, err := inventory.Increase(d("1.5"), d("2.25"))
	require.NoError(t, err)
	assert.Equal(t, "3.750", inventory.Format(next))

	_, err = inventory.Increase(inventory.MaxQuantity, d("0.001"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSetExact(t *testing.T) {
	next, err := inventory.SetExact(d("5"))
	require.NoError(t, err)
	assert.Equal(t, "5.000", inventory.Format(next))

	_, err = inventory.SetExact(d("-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
