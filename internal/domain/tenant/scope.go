// Package tenant define el valor explícito que delimita cada operación a un tenant.
//
// Ningún repositorio lee el tenant de estado global: todas las llamadas reciben un Scope
// y el valor cero se rechaza antes de tocar la base de datos.
package tenant

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Scope tenant activo de una unidad de trabajo.
// Bypass solo lo obtiene un ADMIN cuando la configuración lo permite, y únicamente afecta lecturas.
type Scope struct {
	TenantID string
	Bypass   bool
}

// New construye un Scope validando que tenantID sea un UUID.
func New(tenantID string) (Scope, error) {
	s := Scope{TenantID: strings.TrimSpace(tenantID)}
	if err := s.Validate(); err != nil {
		return Scope{}, err
	}
	return s, nil
}

// ForPrincipal arma el Scope del usuario autenticado.
func ForPrincipal(p entity.Principal, allowBypass bool) (Scope, error) {
	s, err := New(p.TenantID)
	if err != nil {
		return Scope{}, err
	}
	s.Bypass = allowBypass && p.Role == entity.RoleAdmin
	return s, nil
}

// IsZero indica si el Scope no fue inicializado.
func (s Scope) IsZero() bool {
	return s.TenantID == ""
}

// Validate rechaza el Scope vacío o con un tenant que no es UUID.
func (s Scope) Validate() error {
	if s.IsZero() {
		return domain.ErrMissingScope
	}
	if _, err := uuid.Parse(s.TenantID); err != nil {
		return fmt.Errorf("%w: tenant_id %q", domain.ErrInvalidInput, s.TenantID)
	}
	return nil
}

// Strict devuelve el mismo tenant sin bypass; las escrituras siempre usan este Scope.
func (s Scope) Strict() Scope {
	return Scope{TenantID: s.TenantID}
}

func (s Scope) String() string {
	if s.Bypass {
		return s.TenantID + " (bypass)"
	}
	return s.TenantID
}
