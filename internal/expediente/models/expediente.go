package models

import (
	"strings"
	"time"

	id "dicri/pkg/domain"
	dErrors "dicri/pkg/domain-errors"
)

// Expediente is a forensic case file and the aggregate root of its indicios.
//
// Invariants:
//   - NumeroExpediente is non-empty, unique, and immutable after creation
//   - EstadoID changes only through ApplyTransition, never through field updates
//   - TecnicoRegistraID and FechaRegistro are immutable
//   - FechaAprobacion is set only on the transition into Aprobado
type Expediente struct {
	ID                ExpedienteID `json:"expedienteID"`
	NumeroExpediente  string       `json:"numeroExpediente"`
	NumeroMP          *string      `json:"numeroMP"`
	TituloExpediente  string       `json:"tituloExpediente"`
	Descripcion       *string      `json:"descripcion"`
	LugarIncidente    *string      `json:"lugarIncidente"`
	FechaIncidente    *time.Time   `json:"fechaIncidente"`
	Prioridad         Prioridad    `json:"prioridad"`
	Observaciones     *string      `json:"observaciones"`
	EstadoID          Estado       `json:"estadoID"`
	TecnicoRegistraID id.UserID    `json:"tecnicoRegistraID"`
	FechaRegistro     time.Time    `json:"fechaRegistro"`
	FechaAprobacion   *time.Time   `json:"fechaAprobacion"`
	FechaModificacion *time.Time   `json:"fechaModificacion"`
	CantidadIndicios  int          `json:"cantidadIndicios"`
}

type ExpedienteID = id.ExpedienteID

// IsOwnedBy reports whether userID registered the expediente.
func (e *Expediente) IsOwnedBy(userID id.UserID) bool {
	return e.TecnicoRegistraID == userID
}

// ApplyFields copies the editable attributes onto the expediente. State,
// ownership and the business key are never touched.
func (e *Expediente) ApplyFields(f ExpedienteFields, now time.Time) {
	if f.NumeroMP != nil {
		e.NumeroMP = f.NumeroMP
	}
	if f.TituloExpediente != nil {
		e.TituloExpediente = *f.TituloExpediente
	}
	if f.Descripcion != nil {
		e.Descripcion = f.Descripcion
	}
	if f.LugarIncidente != nil {
		e.LugarIncidente = f.LugarIncidente
	}
	if f.FechaIncidente != nil {
		e.FechaIncidente = f.FechaIncidente
	}
	if f.Prioridad != nil {
		e.Prioridad = *f.Prioridad
	}
	if f.Observaciones != nil {
		e.Observaciones = f.Observaciones
	}
	e.FechaModificacion = &now
}

// ApplyTransition records a computed transition on the in-memory copy.
func (e *Expediente) ApplyTransition(t *Transition) {
	e.EstadoID = t.To
	if t.FechaAprobacion != nil {
		e.FechaAprobacion = t.FechaAprobacion
	}
}

// NewExpediente builds a Borrador expediente owned by tecnicoID.
func NewExpediente(cmd CreateExpedienteCommand, tecnicoID id.UserID, now time.Time) (*Expediente, error) {
	numero := strings.TrimSpace(cmd.NumeroExpediente)
	titulo := strings.TrimSpace(cmd.TituloExpediente)
	if numero == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "numeroExpediente is required")
	}
	if titulo == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tituloExpediente is required")
	}
	if tecnicoID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tecnicoRegistraID is required")
	}
	prioridad, err := ParsePrioridad(cmd.Prioridad)
	if err != nil {
		return nil, err
	}
	return &Expediente{
		NumeroExpediente:  numero,
		NumeroMP:          cmd.NumeroMP,
		TituloExpediente:  titulo,
		Descripcion:       cmd.Descripcion,
		LugarIncidente:    cmd.LugarIncidente,
		FechaIncidente:    cmd.FechaIncidente,
		Prioridad:         prioridad,
		Observaciones:     cmd.Observaciones,
		EstadoID:          EstadoBorrador,
		TecnicoRegistraID: tecnicoID,
		FechaRegistro:     now,
	}, nil
}
