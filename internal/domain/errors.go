package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrUnavailable indica que el almacenamiento no respondió a tiempo (lock timeout, conexión).
	// Nada quedó confirmado: el llamador puede reintentar con la misma idempotency key.
	ErrUnavailable  = errors.New("servicio no disponible temporalmente")
	ErrMissingScope = errors.New("scope de tenant requerido")
)
