package models

import (
	"strings"
	"time"

	id "dicri/pkg/domain"
	dErrors "dicri/pkg/domain-errors"
)

const (
	DefaultUnidadMedida = "cm"
	DefaultUnidadPeso   = "g"
)

// Indicio is one evidence item catalogued under an expediente.
//
// Invariants:
//   - NumeroIndicio is non-empty and unique within its expediente
//   - ExpedienteID never changes after creation
//   - absent measurements are nil, never zero
type Indicio struct {
	ID                 id.IndicioID    `json:"indicioID"`
	ExpedienteID       id.ExpedienteID `json:"expedienteID"`
	NumeroIndicio      string          `json:"numeroIndicio"`
	CategoriaID        *int            `json:"categoriaID"`
	NombreObjeto       string          `json:"nombreObjeto"`
	Descripcion        *string         `json:"descripcion"`
	Color              *string         `json:"color"`
	TamanoAlto         *float64        `json:"tamanoAlto"`
	TamanoAncho        *float64        `json:"tamanoAncho"`
	TamanoLargo        *float64        `json:"tamanoLargo"`
	UnidadMedida       string          `json:"unidadMedida"`
	Peso               *float64        `json:"peso"`
	UnidadPeso         string          `json:"unidadPeso"`
	UbicacionHallazgo  *string         `json:"ubicacionHallazgo"`
	LatitudGPS         *float64        `json:"latitudGPS"`
	LongitudGPS        *float64        `json:"longitudGPS"`
	EstadoConservacion *string         `json:"estadoConservacion"`
	FechaRecoleccion   *time.Time      `json:"fechaRecoleccion"`
	RutaFotografia     *string         `json:"rutaFotografia"`
	Observaciones      *string         `json:"observaciones"`
	TecnicoRegistraID  id.UserID       `json:"tecnicoRegistraID"`
	FechaRegistro      time.Time       `json:"fechaRegistro"`
	FechaModificacion  *time.Time      `json:"fechaModificacion"`
}

// Attributes are the descriptive fields shared by create and update.
// On update a nil field is left unchanged.
type Attributes struct {
	CategoriaID        *int
	NombreObjeto       *string
	Descripcion        *string
	Color              *string
	TamanoAlto         *float64
	TamanoAncho        *float64
	TamanoLargo        *float64
	UnidadMedida       *string
	Peso               *float64
	UnidadPeso         *string
	UbicacionHallazgo  *string
	LatitudGPS         *float64
	LongitudGPS        *float64
	EstadoConservacion *string
	FechaRecoleccion   *time.Time
	RutaFotografia     *string
	Observaciones      *string
}

// CreateIndicioCommand is the input to create.
type CreateIndicioCommand struct {
	NumeroIndicio string
	Attributes
}

// Validate checks required fields and measurement ranges.
func (c *CreateIndicioCommand) Validate() error {
	if strings.TrimSpace(c.NumeroIndicio) == "" {
		return dErrors.New(dErrors.CodeValidation, "numeroIndicio is required")
	}
	if c.NombreObjeto == nil || strings.TrimSpace(*c.NombreObjeto) == "" {
		return dErrors.New(dErrors.CodeValidation, "nombreObjeto is required")
	}
	return c.Attributes.Validate()
}

// Validate checks ranges of the fields that are present.
func (a *Attributes) Validate() error {
	if a.NombreObjeto != nil && strings.TrimSpace(*a.NombreObjeto) == "" {
		return dErrors.New(dErrors.CodeValidation, "nombreObjeto cannot be empty")
	}
	for name, v := range map[string]*float64{
		"tamanoAlto":  a.TamanoAlto,
		"tamanoAncho": a.TamanoAncho,
		"tamanoLargo": a.TamanoLargo,
		"peso":        a.Peso,
	} {
		if v != nil && *v < 0 {
			return dErrors.New(dErrors.CodeValidation, name+" cannot be negative")
		}
	}
	if a.LatitudGPS != nil && (*a.LatitudGPS < -90 || *a.LatitudGPS > 90) {
		return dErrors.New(dErrors.CodeValidation, "latitudGPS must be between -90 and 90")
	}
	if a.LongitudGPS != nil && (*a.LongitudGPS < -180 || *a.LongitudGPS > 180) {
		return dErrors.New(dErrors.CodeValidation, "longitudGPS must be between -180 and 180")
	}
	return nil
}

// NewIndicio builds an indicio under expedienteID. Units default to cm and g.
func NewIndicio(expedienteID id.ExpedienteID, cmd CreateIndicioCommand, tecnicoID id.UserID, now time.Time) (*Indicio, error) {
	numero := strings.TrimSpace(cmd.NumeroIndicio)
	if numero == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "numeroIndicio is required")
	}
	if cmd.NombreObjeto == nil || strings.TrimSpace(*cmd.NombreObjeto) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "nombreObjeto is required")
	}
	if expedienteID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "expedienteID is required")
	}
	in := &Indicio{
		ExpedienteID:      expedienteID,
		NumeroIndicio:     numero,
		UnidadMedida:      DefaultUnidadMedida,
		UnidadPeso:        DefaultUnidadPeso,
		TecnicoRegistraID: tecnicoID,
		FechaRegistro:     now,
	}
	in.apply(cmd.Attributes)
	return in, nil
}

// ApplyAttributes copies present attributes and stamps the modification time.
func (in *Indicio) ApplyAttributes(a Attributes, now time.Time) {
	in.apply(a)
	in.FechaModificacion = &now
}

func (in *Indicio) apply(a Attributes) {
	if a.CategoriaID != nil {
		in.CategoriaID = a.CategoriaID
	}
	if a.NombreObjeto != nil {
		in.NombreObjeto = strings.TrimSpace(*a.NombreObjeto)
	}
	if a.Descripcion != nil {
		in.Descripcion = a.Descripcion
	}
	if a.Color != nil {
		in.Color = a.Color
	}
	if a.TamanoAlto != nil {
		in.TamanoAlto = a.TamanoAlto
	}
	if a.TamanoAncho != nil {
		in.TamanoAncho = a.TamanoAncho
	}
	if a.TamanoLargo != nil {
		in.TamanoLargo = a.TamanoLargo
	}
	if a.UnidadMedida != nil && *a.UnidadMedida != "" {
		in.UnidadMedida = *a.UnidadMedida
	}
	if a.Peso != nil {
		in.Peso = a.Peso
	}
	if a.UnidadPeso != nil && *a.UnidadPeso != "" {
		in.UnidadPeso = *a.UnidadPeso
	}
	if a.UbicacionHallazgo != nil {
		in.UbicacionHallazgo = a.UbicacionHallazgo
	}
	if a.LatitudGPS != nil {
		in.LatitudGPS = a.LatitudGPS
	}
	if a.LongitudGPS != nil {
		in.LongitudGPS = a.LongitudGPS
	}
	if a.EstadoConservacion != nil {
		in.EstadoConservacion = a.EstadoConservacion
	}
	if a.FechaRecoleccion != nil {
		in.FechaRecoleccion = a.FechaRecoleccion
	}
	if a.RutaFotografia != nil {
		in.RutaFotografia = a.RutaFotografia
	}
	if a.Observaciones != nil {
		in.Observaciones = a.Observaciones
	}
}
