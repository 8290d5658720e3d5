package entity

// Roles válidos dentro de un tenant.
const (
	RoleAdmin    = "ADMIN"
	RoleManager  = "MANAGER"
	RoleClerk    = "CLERK"
	RoleReadOnly = "READ_ONLY"
)

// ValidRole indica si role es uno de los roles conocidos.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleClerk, RoleReadOnly:
		return true
	}
	return false
}

// Principal usuario autenticado tal como lo entrega la capa de autenticación.
// El motor de inventario confía en estos valores sin volver a validarlos.
type Principal struct {
	UserID   string
	TenantID string
	Role     string
}
