package handler

import (
	"dicri/internal/expediente/models"
)

// ExpedienteResponse adds the readable state name to the stored record.
type ExpedienteResponse struct {
	*models.Expediente
	NombreEstado string `json:"nombreEstado"`
}

func toExpedienteResponse(e *models.Expediente) ExpedienteResponse {
	return ExpedienteResponse{Expediente: e, NombreEstado: e.EstadoID.String()}
}

// ListResponse is one page of expedientes.
type ListResponse struct {
	*models.PageResult[*models.Expediente]
	Items []ExpedienteResponse `json:"items"`
}

func toListResponse(p *models.PageResult[*models.Expediente]) ListResponse {
	items := make([]ExpedienteResponse, 0, len(p.Items))
	for _, e := range p.Items {
		items = append(items, toExpedienteResponse(e))
	}
	return ListResponse{PageResult: p, Items: items}
}

// DetalleResponse is the body of GET /api/expedientes/{id}/detalle.
type DetalleResponse struct {
	*models.Detalle
	Expediente ExpedienteResponse `json:"expediente"`
}

func toDetalleResponse(d *models.Detalle) DetalleResponse {
	return DetalleResponse{Detalle: d, Expediente: toExpedienteResponse(d.Expediente)}
}

// HistorialResponse wraps history rows with readable state names.
type HistorialResponse struct {
	*models.HistorialEntry
	NombreEstadoAnterior string `json:"nombreEstadoAnterior"`
	NombreEstadoNuevo    string `json:"nombreEstadoNuevo"`
}

func toHistorialResponse(rows []*models.HistorialEntry) []HistorialResponse {
	out := make([]HistorialResponse, 0, len(rows))
	for _, h := range rows {
		out = append(out, HistorialResponse{
			HistorialEntry:       h,
			NombreEstadoAnterior: h.EstadoAnterior.String(),
			NombreEstadoNuevo:    h.EstadoNuevo.String(),
		})
	}
	return out
}
