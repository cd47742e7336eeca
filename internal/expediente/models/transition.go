package models

import (
	"time"

	id "dicri/pkg/domain"
	dErrors "dicri/pkg/domain-errors"
)

// Operation names a workflow transition. Each operation implies exactly one
// target state; callers never pick a target directly.
type Operation string

const (
	OpSubmit        Operation = "submit"
	OpApprove       Operation = "approve"
	OpReject        Operation = "reject"
	OpReturnToDraft Operation = "return_to_draft"
)

// Accion is the label recorded in the history row for each operation.
const (
	AccionEnviarRevision   = "Enviar a Revisión"
	AccionAprobar          = "Aprobar"
	AccionRechazar         = "Rechazar"
	AccionDevolverBorrador = "Devolver a Borrador"
)

type transitionRule struct {
	from           Estado
	to             Estado
	accion         string
	defaultComment string
}

var transitions = map[Operation]transitionRule{
	OpSubmit:        {from: EstadoBorrador, to: EstadoEnRevision, accion: AccionEnviarRevision, defaultComment: "Expediente enviado a revisión por el técnico"},
	OpApprove:       {from: EstadoEnRevision, to: EstadoAprobado, accion: AccionAprobar, defaultComment: "Expediente aprobado"},
	OpReject:        {from: EstadoEnRevision, to: EstadoRechazado, accion: AccionRechazar, defaultComment: "Expediente rechazado"},
	OpReturnToDraft: {from: EstadoEnRevision, to: EstadoBorrador, accion: AccionDevolverBorrador, defaultComment: "Expediente devuelto para correcciones"},
}

// Target returns the state an operation moves an expediente into.
func (op Operation) Target() (Estado, bool) {
	r, ok := transitions[op]
	return r.to, ok
}

// Source returns the only state the operation accepts under strict rules.
func (op Operation) Source() (Estado, bool) {
	r, ok := transitions[op]
	return r.from, ok
}

// TransitionRules controls whether review decisions require the EnRevision
// source state. Submission always requires Borrador.
type TransitionRules struct {
	EnforceReviewState bool
}

// TransitionCommand carries the caller-supplied parts of a transition.
type TransitionCommand struct {
	Op                   Operation
	UsuarioID            id.UserID
	Comentarios          string
	JustificacionRechazo string
}

// Transition is the outcome of applying an operation: the new state, the
// history row to append, and the approval timestamp when one is set.
type Transition struct {
	From            Estado
	To              Estado
	History         HistorialEntry
	FechaAprobacion *time.Time
	// RequireIndicios asks the store to verify, under the same lock as the
	// state change, that the expediente has at least one indicio.
	RequireIndicios bool
}

// ApplyTransition validates op against the current state and computes the
// resulting state change and history entry. It never mutates e.
func (r TransitionRules) ApplyTransition(e *Expediente, cmd TransitionCommand, now time.Time) (*Transition, error) {
	rule, ok := transitions[cmd.Op]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidState, "unknown operation: "+string(cmd.Op))
	}
	if !e.EstadoID.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "expediente has unknown estado")
	}
	if err := r.checkSource(cmd.Op, rule, e.EstadoID); err != nil {
		return nil, err
	}

	comentarios := cmd.Comentarios
	if comentarios == "" {
		comentarios = rule.defaultComment
	}
	t := &Transition{
		From: e.EstadoID,
		To:   rule.to,
		History: HistorialEntry{
			ExpedienteID:   e.ID,
			UsuarioID:      cmd.UsuarioID,
			EstadoAnterior: e.EstadoID,
			EstadoNuevo:    rule.to,
			Accion:         rule.accion,
			Comentarios:    comentarios,
			FechaAccion:    now,
		},
	}
	if cmd.Op == OpSubmit {
		t.RequireIndicios = true
	}
	if cmd.Op == OpReject {
		t.History.JustificacionRechazo = cmd.JustificacionRechazo
	}
	if rule.to == EstadoAprobado {
		at := now
		t.FechaAprobacion = &at
	}
	return t, nil
}

func (r TransitionRules) checkSource(op Operation, rule transitionRule, current Estado) error {
	if current == rule.from {
		return nil
	}
	if op != OpSubmit && !r.EnforceReviewState && current != rule.to {
		return nil
	}
	return dErrors.New(dErrors.CodeInvalidState,
		"cannot "+string(op)+" an expediente in estado "+current.String()).
		WithDetail("estado", current.String()).
		WithDetail("estado_requerido", rule.from.String())
}

// Replay folds a sequence of history rows starting from Borrador and returns
// the resulting state. It fails on a row whose EstadoAnterior does not match
// the running state or whose Accion does not produce its EstadoNuevo.
func Replay(entries []HistorialEntry) (Estado, error) {
	state := EstadoBorrador
	for _, h := range entries {
		if h.EstadoAnterior != state {
			return state, dErrors.New(dErrors.CodeInvariantViolation, "history out of sequence")
		}
		var matched bool
		for _, rule := range transitions {
			if rule.accion == h.Accion && rule.to == h.EstadoNuevo {
				matched = true
				break
			}
		}
		if !matched {
			return state, dErrors.New(dErrors.CodeInvariantViolation, "history row is not a recognized transition")
		}
		state = h.EstadoNuevo
	}
	return state, nil
}
