package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "uq_movement_tenant_idempotency"}, domain.ErrDuplicate},
		{"saldo negativo", &pgconn.PgError{Code: "23514", ConstraintName: ckBalanceNonNegative}, domain.ErrInsufficientStock},
		{"otro check", &pgconn.PgError{Code: "23514", ConstraintName: "ck_movement_qty_positive"}, domain.ErrInvalidInput},
		{"overflow numeric", &pgconn.PgError{Code: "22003"}, domain.ErrInvalidInput},
		{"fk", &pgconn.PgError{Code: "23503"}, domain.ErrNotFound},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, domain.ErrUnavailable},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, domain.ErrUnavailable},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, domain.ErrUnavailable},
		{"serialización", &pgconn.PgError{Code: "40001"}, domain.ErrUnavailable},
		{"conexión", &pgconn.PgError{Code: "08006"}, domain.ErrUnavailable},
		{"deadline", fmt.Errorf("begin transaction: %w", context.DeadlineExceeded), domain.ErrUnavailable},
		{"dominio intacto", fmt.Errorf("%w: bodega", domain.ErrNotFound), domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.err)
			assert.ErrorIs(t, got, tc.want)
			assert.ErrorIs(t, got, tc.err)
		})
	}
}

func TestClassify_Desconocido(t *testing.T) {
	err := errors.New("boom")
	assert.Same(t, err, classify(err))
	assert.NoError(t, classify(nil))
	pg := &pgconn.PgError{Code: "42P01"}
	assert.Same(t, error(pg), classify(pg))
}
