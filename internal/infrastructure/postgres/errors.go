package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// Constraint cuyo fallo significa saldo negativo.
const ckBalanceNonNegative = "ck_inventory_qty_nonnegative"

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeForeignKeyViolation = "23503"
	codeNumericOutOfRange   = "22003"
	codeInvalidText         = "22P02"
	codeLockNotAvailable    = "55P03"
	codeQueryCanceled       = "57014"
	codeDeadlockDetected    = "40P01"
	codeSerialization       = "40001"
)

// classify traduce errores de PostgreSQL a errores de dominio conservando el original en la cadena.
// Errores que ya son de dominio o que no reconoce se devuelven igual.
func classify(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return fmt.Errorf("%w: %w", domain.ErrDuplicate, err)
		case pgErr.Code == codeCheckViolation && pgErr.ConstraintName == ckBalanceNonNegative:
			return fmt.Errorf("%w: %w", domain.ErrInsufficientStock, err)
		case pgErr.Code == codeCheckViolation,
			pgErr.Code == codeNumericOutOfRange,
			pgErr.Code == codeInvalidText:
			return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		case pgErr.Code == codeForeignKeyViolation:
			return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
		case pgErr.Code == codeLockNotAvailable,
			pgErr.Code == codeQueryCanceled,
			pgErr.Code == codeDeadlockDetected,
			pgErr.Code == codeSerialization,
			strings.HasPrefix(pgErr.Code, "08"):
			return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
		}
		return err
	}
	if pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return err
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrInvalidInput, domain.ErrDuplicate, domain.ErrConflict,
		domain.ErrInsufficientStock, domain.ErrUnavailable, domain.ErrMissingScope,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
