package domain

import dErrors "dicri/pkg/domain-errors"

// Role is the closed set of roles a caller can hold.
type Role string

const (
	RoleTecnico       Role = "Técnico"
	RoleCoordinador   Role = "Coordinador"
	RoleAdministrador Role = "Administrador"
)

// ParseRole accepts only the three known role names.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleTecnico, RoleCoordinador, RoleAdministrador:
		return r, nil
	default:
		return "", dErrors.New(dErrors.CodeUnauthorized, "unknown role")
	}
}

func (r Role) String() string { return string(r) }

func (r Role) IsAdmin() bool { return r == RoleAdministrador }

// Caller is the authenticated identity attached to a request.
type Caller struct {
	UserID UserID
	Role   Role
}
