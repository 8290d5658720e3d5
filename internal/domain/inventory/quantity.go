package inventory

import (
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Scale número de decimales de toda cantidad (NUMERIC(14,3) en base de datos).
const Scale int32 = 3

// MaxQuantity mayor valor representable en la columna qty.
var MaxQuantity = decimal.RequireFromString("99999999999.999")

// Rango de exponentes aceptado antes de reescalar. Fuera de él Truncate y Cmp
// construyen potencias de diez del tamaño del exponente.
const (
	minExponent int32 = -18
	maxExponent int32 = 14
)

// ParseQuantity convierte texto a decimal exacto y valida la escala.
func ParseQuantity(s string) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: cantidad %q", domain.ErrInvalidInput, s)
	}
	if err := checkScale(q); err != nil {
		return decimal.Zero, err
	}
	return q, nil
}

// ValidateQuantity exige una cantidad de movimiento estrictamente positiva.
func ValidateQuantity(q decimal.Decimal) error {
	if !q.IsPositive() {
		return fmt.Errorf("%w: quantity debe ser mayor que cero", domain.ErrInvalidInput)
	}
	return checkScale(q)
}

// ValidateTarget exige un saldo objetivo (ADJUST) mayor o igual a cero.
func ValidateTarget(q decimal.Decimal) error {
	if q.IsNegative() {
		return fmt.Errorf("%w: adjust_to_quantity no puede ser negativo", domain.ErrInvalidInput)
	}
	return checkScale(q)
}

// Increase suma amount al saldo actual.
func Increase(current, amount decimal.Decimal) (decimal.Decimal, error) {
	next := current.Add(amount)
	if next.GreaterThan(MaxQuantity) {
		return current, fmt.Errorf("%w: el saldo excede el máximo permitido", domain.ErrInvalidInput)
	}
	return next, nil
}

// Decrease resta amount; si el resultado fuera negativo devuelve ErrInsufficientStock y no cambia nada.
// Debe invocarse con la fila del saldo bloqueada.
func Decrease(current, amount decimal.Decimal) (decimal.Decimal, error) {
	next := current.Sub(amount)
	if next.IsNegative() {
		return current, domain.ErrInsufficientStock
	}
	return next, nil
}

// SetExact devuelve el saldo objetivo de un ADJUST, ignorando el saldo actual.
func SetExact(target decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateTarget(target); err != nil {
		return decimal.Zero, err
	}
	return target, nil
}

// Format representa la cantidad con exactamente tres decimales ("100.000").
func Format(q decimal.Decimal) string {
	return q.StringFixed(Scale)
}

func checkScale(q decimal.Decimal) error {
	if exp := q.Exponent(); exp < minExponent || exp > maxExponent {
		return fmt.Errorf("%w: cantidad fuera de rango", domain.ErrInvalidInput)
	}
	if !q.Equal(q.Truncate(Scale)) {
		return fmt.Errorf("%w: máximo %d decimales", domain.ErrInvalidInput, Scale)
	}
	if q.Abs().GreaterThan(MaxQuantity) {
		return fmt.Errorf("%w: cantidad fuera de rango", domain.ErrInvalidInput)
	}
	return nil
}
