package models

import (
	"time"

	id "dicri/pkg/domain"
)

// HistorialEntry is one append-only row of the approval trail.
type HistorialEntry struct {
	ID                   id.HistorialID `json:"historialID"`
	ExpedienteID         ExpedienteID   `json:"expedienteID"`
	UsuarioID            id.UserID      `json:"usuarioID"`
	EstadoAnterior       Estado         `json:"estadoAnterior"`
	EstadoNuevo          Estado         `json:"estadoNuevo"`
	Accion               string         `json:"accion"`
	Comentarios          string         `json:"comentarios,omitempty"`
	JustificacionRechazo string         `json:"justificacionRechazo,omitempty"`
	FechaAccion          time.Time      `json:"fechaAccion"`
}

// HistorialFilter narrows history queries. Zero values match everything.
type HistorialFilter struct {
	ExpedienteID ExpedienteID
	FechaInicio  *time.Time
	FechaFin     *time.Time
}

// Matches applies the filter in memory. FechaFin is inclusive.
func (f HistorialFilter) Matches(h HistorialEntry) bool {
	if !f.ExpedienteID.IsNil() && h.ExpedienteID != f.ExpedienteID {
		return false
	}
	if f.FechaInicio != nil && h.FechaAccion.Before(*f.FechaInicio) {
		return false
	}
	if f.FechaFin != nil && h.FechaAccion.After(*f.FechaFin) {
		return false
	}
	return true
}
