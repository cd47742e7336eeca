package handler

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"dicri/internal/expediente/models"
	id "dicri/pkg/domain"
	dErrors "dicri/pkg/domain-errors"
	liststr "dicri/pkg/platform/strings"
)

const (
	maxNumeroLength = 50
	maxTituloLength = 200
	dateLayout      = "2006-01-02"
)

// CreateExpedienteRequest is the body of POST /api/expedientes.
type CreateExpedienteRequest struct {
	NumeroExpediente string  `json:"numeroExpediente"`
	NumeroMP         *string `json:"numeroMP"`
	TituloExpediente string  `json:"tituloExpediente"`
	Descripcion      *string `json:"descripcion"`
	LugarIncidente   *string `json:"lugarIncidente"`
	FechaIncidente   *string `json:"fechaIncidente"`
	Prioridad        string  `json:"prioridad"`
	Observaciones    *string `json:"observaciones"`

	fechaIncidente *time.Time
}

func (r *CreateExpedienteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.NumeroExpediente = strings.TrimSpace(r.NumeroExpediente)
	r.TituloExpediente = strings.TrimSpace(r.TituloExpediente)
	if len(r.NumeroExpediente) > maxNumeroLength {
		return dErrors.New(dErrors.CodeValidation, "numeroExpediente must be at most 50 characters")
	}
	if len(r.TituloExpediente) > maxTituloLength {
		return dErrors.New(dErrors.CodeValidation, "tituloExpediente must be at most 200 characters")
	}
	fecha, err := parseFecha("fechaIncidente", r.FechaIncidente)
	if err != nil {
		return err
	}
	r.fechaIncidente = fecha
	return nil
}

// Command converts the request into the service input.
func (r *CreateExpedienteRequest) Command() models.CreateExpedienteCommand {
	return models.CreateExpedienteCommand{
		NumeroExpediente: r.NumeroExpediente,
		NumeroMP:         r.NumeroMP,
		TituloExpediente: r.TituloExpediente,
		Descripcion:      r.Descripcion,
		LugarIncidente:   r.LugarIncidente,
		FechaIncidente:   r.fechaIncidente,
		Prioridad:        r.Prioridad,
		Observaciones:    r.Observaciones,
	}
}

// UpdateExpedienteRequest is the body of PUT /api/expedientes/{id}. Absent
// fields are left unchanged.
type UpdateExpedienteRequest struct {
	NumeroMP         *string `json:"numeroMP"`
	TituloExpediente *string `json:"tituloExpediente"`
	Descripcion      *string `json:"descripcion"`
	LugarIncidente   *string `json:"lugarIncidente"`
	FechaIncidente   *string `json:"fechaIncidente"`
	Prioridad        *string `json:"prioridad"`
	Observaciones    *string `json:"observaciones"`
	EstadoID         *int    `json:"estadoID"`
	NumeroExpediente *string `json:"numeroExpediente"`

	fields models.ExpedienteFields
}

func (r *UpdateExpedienteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.EstadoID != nil {
		return dErrors.New(dErrors.CodeValidation, "estadoID cannot be changed through update; use the review endpoints")
	}
	if r.NumeroExpediente != nil {
		return dErrors.New(dErrors.CodeValidation, "numeroExpediente cannot be changed")
	}
	if r.TituloExpediente != nil && len(strings.TrimSpace(*r.TituloExpediente)) > maxTituloLength {
		return dErrors.New(dErrors.CodeValidation, "tituloExpediente must be at most 200 characters")
	}
	fecha, err := parseFecha("fechaIncidente", r.FechaIncidente)
	if err != nil {
		return err
	}
	fields, err := models.NewExpedienteFields(r.NumeroMP, r.TituloExpediente, r.Descripcion, r.LugarIncidente, fecha, r.Prioridad, r.Observaciones)
	if err != nil {
		return err
	}
	r.fields = fields
	return nil
}

func (r *UpdateExpedienteRequest) Fields() models.ExpedienteFields {
	return r.fields
}

// ReviewRequest is the optional body of the submit, approve and return
// endpoints.
type ReviewRequest struct {
	Comentarios string `json:"comentarios"`
}

func (r *ReviewRequest) Validate() error {
	r.Comentarios = strings.TrimSpace(r.Comentarios)
	return nil
}

// RejectRequest is the body of POST /api/aprobaciones/{id}/rechazar. The
// service owns the justification check.
type RejectRequest struct {
	JustificacionRechazo string `json:"justificacionRechazo"`
	Comentarios          string `json:"comentarios"`
}

func (r *RejectRequest) Validate() error {
	r.Comentarios = strings.TrimSpace(r.Comentarios)
	return nil
}

// parseFecha accepts a calendar date or an RFC 3339 timestamp.
func parseFecha(field string, v *string) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, field+" must be YYYY-MM-DD or RFC 3339")
	}
	return &t, nil
}

// parsePage reads page and pageSize; bad values fall back to defaults.
func parsePage(q url.Values) models.Page {
	number, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("pageSize"))
	return models.Page{Number: number, Size: size}.Normalize()
}

func parseListFilter(q url.Values) (models.ListFilter, error) {
	var f models.ListFilter
	for _, part := range liststr.SplitList(q.Get("estado")) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return f, dErrors.New(dErrors.CodeValidation, "estado must be a comma separated list of numbers")
		}
		e, err := models.ParseEstado(n)
		if err != nil {
			return f, err
		}
		f.Estados = append(f.Estados, e)
	}
	f.Estados = liststr.Dedupe(f.Estados)
	if raw := q.Get("tecnicoID"); raw != "" {
		v, err := id.ParseUserID(raw)
		if err != nil {
			return f, err
		}
		f.TecnicoID = v
	}
	if raw := q.Get("coordinadorID"); raw != "" {
		v, err := id.ParseUserID(raw)
		if err != nil {
			return f, err
		}
		f.CoordinadorID = v
	}
	var err error
	if f.FechaInicio, f.FechaFin, err = parseRange(q); err != nil {
		return f, err
	}
	if raw := strings.TrimSpace(q.Get("prioridad")); raw != "" {
		p, err := models.ParsePrioridad(raw)
		if err != nil {
			return f, err
		}
		f.Prioridad = p
	}
	f.Busqueda = strings.TrimSpace(q.Get("busqueda"))
	return f, nil
}

func parseHistorialFilter(q url.Values) (models.HistorialFilter, error) {
	var f models.HistorialFilter
	if raw := q.Get("expedienteID"); raw != "" {
		v, err := id.ParseExpedienteID(raw)
		if err != nil {
			return f, err
		}
		f.ExpedienteID = v
	}
	var err error
	f.FechaInicio, f.FechaFin, err = parseRange(q)
	return f, err
}

// parseRange reads fechaInicio and fechaFin. A bare fechaFin date covers the
// whole day.
func parseRange(q url.Values) (*time.Time, *time.Time, error) {
	inicioRaw, finRaw := q.Get("fechaInicio"), q.Get("fechaFin")
	inicio, err := parseFecha("fechaInicio", &inicioRaw)
	if err != nil {
		return nil, nil, err
	}
	fin, err := parseFecha("fechaFin", &finRaw)
	if err != nil {
		return nil, nil, err
	}
	if fin != nil && len(strings.TrimSpace(finRaw)) == len(dateLayout) {
		end := fin.Add(24*time.Hour - time.Nanosecond)
		fin = &end
	}
	if inicio != nil && fin != nil && fin.Before(*inicio) {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "fechaFin must not be before fechaInicio")
	}
	return inicio, fin, nil
}
