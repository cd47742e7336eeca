// Package policy centralizes every role, ownership and state check for the
// expediente workflow. Functions are pure: they take the caller and the
// persisted record state and return a Decision, never touching storage.
package policy

import (
	"strings"

	"dicri/internal/expediente/models"
	id "dicri/pkg/domain"
	dErrors "dicri/pkg/domain-errors"
)

// Action names a guarded operation.
type Action string

const (
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionSubmit         Action = "submit"
	ActionReview         Action = "review"
	ActionListPendientes Action = "list_pendientes"
	ActionMutateIndicio  Action = "mutate_indicio"
)

// Reason explains a denial so callers can render it without a second lookup.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonRole       Reason = "role"
	ReasonWrongOwner Reason = "wrong_owner"
	ReasonWrongState Reason = "wrong_state"
)

// Decision is the result of a policy check.
type Decision struct {
	Action        Action
	Allowed       bool
	Reason        Reason
	Estado        models.Estado
	RequiredRoles []id.Role
}

// Subject is the persisted state a decision is made against.
type Subject struct {
	OwnerID id.UserID
	Estado  models.Estado
}

// SubjectOf extracts the policy-relevant fields of an expediente.
func SubjectOf(e *models.Expediente) Subject {
	return Subject{OwnerID: e.TecnicoRegistraID, Estado: e.EstadoID}
}

var (
	creatorRoles  = []id.Role{id.RoleTecnico, id.RoleAdministrador}
	reviewerRoles = []id.Role{id.RoleCoordinador, id.RoleAdministrador}
	adminRoles    = []id.Role{id.RoleAdministrador}
)

func allow(a Action) Decision { return Decision{Action: a, Allowed: true} }

func hasRole(c id.Caller, roles []id.Role) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

func requireRole(a Action, c id.Caller, roles []id.Role) Decision {
	if hasRole(c, roles) {
		return allow(a)
	}
	return Decision{Action: a, Reason: ReasonRole, RequiredRoles: roles}
}

// CanCreate allows Técnico and Administrador.
func CanCreate(c id.Caller) Decision {
	return requireRole(ActionCreate, c, creatorRoles)
}

// CanEdit allows Administrador in any state, or the owning technician while
// the expediente is Borrador.
func CanEdit(c id.Caller, s Subject) Decision {
	return editDecision(ActionUpdate, c, s)
}

// CanMutateIndicio applies the parent expediente's edit rule.
func CanMutateIndicio(c id.Caller, parent Subject) Decision {
	return editDecision(ActionMutateIndicio, c, parent)
}

func editDecision(a Action, c id.Caller, s Subject) Decision {
	if c.Role.IsAdmin() {
		return allow(a)
	}
	if c.Role != id.RoleTecnico || c.UserID != s.OwnerID {
		return Decision{Action: a, Reason: ReasonWrongOwner, Estado: s.Estado, RequiredRoles: creatorRoles}
	}
	if s.Estado != models.EstadoBorrador {
		return Decision{Action: a, Reason: ReasonWrongState, Estado: s.Estado}
	}
	return allow(a)
}

// CanSubmit checks ownership only; the Borrador precondition belongs to the
// transition itself.
func CanSubmit(c id.Caller, s Subject) Decision {
	if c.Role.IsAdmin() {
		return allow(ActionSubmit)
	}
	if c.Role == id.RoleTecnico && c.UserID == s.OwnerID {
		return allow(ActionSubmit)
	}
	return Decision{Action: ActionSubmit, Reason: ReasonWrongOwner, Estado: s.Estado, RequiredRoles: creatorRoles}
}

// CanReview allows Coordinador and Administrador to approve, reject or return.
func CanReview(c id.Caller) Decision {
	return requireRole(ActionReview, c, reviewerRoles)
}

// CanListPendientes allows the reviewer roles to see the review queue.
func CanListPendientes(c id.Caller) Decision {
	return requireRole(ActionListPendientes, c, reviewerRoles)
}

// CanDelete allows Administrador only.
func CanDelete(c id.Caller) Decision {
	return requireRole(ActionDelete, c, adminRoles)
}

// Err converts a denial into a coded Forbidden error carrying the reason,
// the current state and the roles that would be allowed. It returns nil for
// allowed decisions.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	err := dErrors.New(dErrors.CodeForbidden, d.message()).
		WithDetail("reason", string(d.Reason)).
		WithDetail("action", string(d.Action))
	if d.Estado != 0 {
		err = err.WithDetail("estado", d.Estado.String())
	}
	if len(d.RequiredRoles) > 0 {
		names := make([]string, len(d.RequiredRoles))
		for i, r := range d.RequiredRoles {
			names[i] = r.String()
		}
		err = err.WithDetail("required_roles", names)
	}
	return err
}

func (d Decision) message() string {
	switch d.Reason {
	case ReasonWrongState:
		return "solo puedes editar expedientes en estado Borrador"
	case ReasonWrongOwner:
		return "no tienes permiso para modificar este expediente"
	case ReasonRole:
		names := make([]string, len(d.RequiredRoles))
		for i, r := range d.RequiredRoles {
			names[i] = r.String()
		}
		return "acción permitida solo para: " + strings.Join(names, ", ")
	default:
		return "forbidden"
	}
}
