package handler

import (
	"strings"
	"time"

	"dicri/internal/indicio/models"
	dErrors "dicri/pkg/domain-errors"
)

// IndicioRequest carries the descriptive fields shared by create and update.
type IndicioRequest struct {
	CategoriaID        *int     `json:"categoriaID"`
	NombreObjeto       *string  `json:"nombreObjeto"`
	Descripcion        *string  `json:"descripcion"`
	Color              *string  `json:"color"`
	TamanoAlto         *float64 `json:"tamanoAlto"`
	TamanoAncho        *float64 `json:"tamanoAncho"`
	TamanoLargo        *float64 `json:"tamanoLargo"`
	UnidadMedida       *string  `json:"unidadMedida"`
	Peso               *float64 `json:"peso"`
	UnidadPeso         *string  `json:"unidadPeso"`
	UbicacionHallazgo  *string  `json:"ubicacionHallazgo"`
	LatitudGPS         *float64 `json:"latitudGPS"`
	LongitudGPS        *float64 `json:"longitudGPS"`
	EstadoConservacion *string  `json:"estadoConservacion"`
	FechaRecoleccion   *string  `json:"fechaRecoleccion"`
	RutaFotografia     *string  `json:"rutaFotografia"`
	Observaciones      *string  `json:"observaciones"`

	attrs models.Attributes
}

func (r *IndicioRequest) prepare() error {
	var fecha *time.Time
	if r.FechaRecoleccion != nil && strings.TrimSpace(*r.FechaRecoleccion) != "" {
		raw := strings.TrimSpace(*r.FechaRecoleccion)
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			t, err = time.Parse(time.RFC3339, raw)
		}
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "fechaRecoleccion must be YYYY-MM-DD or RFC 3339")
		}
		fecha = &t
	}
	if r.CategoriaID != nil && *r.CategoriaID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "categoriaID must be positive")
	}
	r.attrs = models.Attributes{
		CategoriaID:        r.CategoriaID,
		NombreObjeto:       r.NombreObjeto,
		Descripcion:        r.Descripcion,
		Color:              r.Color,
		TamanoAlto:         r.TamanoAlto,
		TamanoAncho:        r.TamanoAncho,
		TamanoLargo:        r.TamanoLargo,
		UnidadMedida:       trimmed(r.UnidadMedida),
		Peso:               r.Peso,
		UnidadPeso:         trimmed(r.UnidadPeso),
		UbicacionHallazgo:  r.UbicacionHallazgo,
		LatitudGPS:         r.LatitudGPS,
		LongitudGPS:        r.LongitudGPS,
		EstadoConservacion: r.EstadoConservacion,
		FechaRecoleccion:   fecha,
		RutaFotografia:     r.RutaFotografia,
		Observaciones:      r.Observaciones,
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// CreateIndicioRequest is the body of POST /api/indicios/expediente/{expedienteID}.
type CreateIndicioRequest struct {
	NumeroIndicio string `json:"numeroIndicio"`
	IndicioRequest
}

func (r *CreateIndicioRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.NumeroIndicio = strings.TrimSpace(r.NumeroIndicio)
	if len(r.NumeroIndicio) > 50 {
		return dErrors.New(dErrors.CodeValidation, "numeroIndicio must be at most 50 characters")
	}
	return r.prepare()
}

func (r *CreateIndicioRequest) Command() models.CreateIndicioCommand {
	return models.CreateIndicioCommand{NumeroIndicio: r.NumeroIndicio, Attributes: r.attrs}
}

// UpdateIndicioRequest is the body of PUT /api/indicios/{id}. Absent fields
// are left unchanged; the parent and the business key cannot move.
type UpdateIndicioRequest struct {
	NumeroIndicio *string `json:"numeroIndicio"`
	ExpedienteID  *int64  `json:"expedienteID"`
	IndicioRequest
}

func (r *UpdateIndicioRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.ExpedienteID != nil {
		return dErrors.New(dErrors.CodeValidation, "expedienteID cannot be changed")
	}
	if r.NumeroIndicio != nil {
		return dErrors.New(dErrors.CodeValidation, "numeroIndicio cannot be changed")
	}
	return r.prepare()
}

func (r *UpdateIndicioRequest) Attributes() models.Attributes {
	return r.attrs
}
