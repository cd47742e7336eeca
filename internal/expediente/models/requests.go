package models

import (
	"math"
	"strings"
	"time"

	indiciomodels "dicri/internal/indicio/models"
	id "dicri/pkg/domain"
	dErrors "dicri/pkg/domain-errors"
)

// CreateExpedienteCommand is the input to create. Optional attributes stay
// nil when absent so they are stored as NULL.
type CreateExpedienteCommand struct {
	NumeroExpediente string
	NumeroMP         *string
	TituloExpediente string
	Descripcion      *string
	LugarIncidente   *string
	FechaIncidente   *time.Time
	Prioridad        string
	Observaciones    *string
}

// Validate checks required fields before any store access.
func (c *CreateExpedienteCommand) Validate() error {
	if strings.TrimSpace(c.NumeroExpediente) == "" {
		return dErrors.New(dErrors.CodeValidation, "numeroExpediente is required")
	}
	if strings.TrimSpace(c.TituloExpediente) == "" {
		return dErrors.New(dErrors.CodeValidation, "tituloExpediente is required")
	}
	if _, err := ParsePrioridad(c.Prioridad); err != nil {
		return err
	}
	return nil
}

// ExpedienteFields is a partial update. A nil field is left unchanged.
// There is deliberately no EstadoID field.
type ExpedienteFields struct {
	NumeroMP         *string
	TituloExpediente *string
	Descripcion      *string
	LugarIncidente   *string
	FechaIncidente   *time.Time
	Prioridad        *Prioridad
	Observaciones    *string
}

// NewExpedienteFields validates and normalizes raw update input.
func NewExpedienteFields(numeroMP, titulo, descripcion, lugar *string, fecha *time.Time, prioridad *string, observaciones *string) (ExpedienteFields, error) {
	f := ExpedienteFields{
		NumeroMP:       numeroMP,
		Descripcion:    descripcion,
		LugarIncidente: lugar,
		FechaIncidente: fecha,
		Observaciones:  observaciones,
	}
	if titulo != nil {
		t := strings.TrimSpace(*titulo)
		if t == "" {
			return ExpedienteFields{}, dErrors.New(dErrors.CodeValidation, "tituloExpediente cannot be empty")
		}
		f.TituloExpediente = &t
	}
	if prioridad != nil {
		p, err := ParsePrioridad(*prioridad)
		if err != nil {
			return ExpedienteFields{}, err
		}
		f.Prioridad = &p
	}
	return f, nil
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPageNumber keeps Offset within int for any normalized page size.
	MaxPageNumber = math.MaxInt / MaxPageSize
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Normalize applies defaults and clamps the page size.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ListFilter narrows expediente listings. Zero values match everything.
type ListFilter struct {
	Estados       []Estado
	TecnicoID     id.UserID
	CoordinadorID id.UserID
	FechaInicio   *time.Time
	FechaFin      *time.Time
	Prioridad     Prioridad
	Busqueda      string
}

// Matches applies the filter in memory. CoordinadorID is resolved by the
// store against history and is not checked here.
func (f ListFilter) Matches(e *Expediente) bool {
	if len(f.Estados) > 0 {
		found := false
		for _, s := range f.Estados {
			if e.EstadoID == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.TecnicoID.IsNil() && e.TecnicoRegistraID != f.TecnicoID {
		return false
	}
	if f.FechaInicio != nil && e.FechaRegistro.Before(*f.FechaInicio) {
		return false
	}
	if f.FechaFin != nil && e.FechaRegistro.After(*f.FechaFin) {
		return false
	}
	if f.Prioridad != "" && e.Prioridad != f.Prioridad {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Busqueda)); q != "" {
		haystack := strings.ToLower(e.NumeroExpediente + " " + e.TituloExpediente)
		if e.Descripcion != nil {
			haystack += " " + strings.ToLower(*e.Descripcion)
		}
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

// PageResult is one page of a listing plus the total match count.
type PageResult[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"totalRegistros"`
	TotalPages int `json:"totalPages"`
}

// NewPageResult computes TotalPages from total and page size.
func NewPageResult[T any](items []T, page Page, total int) *PageResult[T] {
	pages := 0
	if page.Size > 0 {
		pages = (total + page.Size - 1) / page.Size
	}
	if items == nil {
		items = []T{}
	}
	return &PageResult[T]{Items: items, Page: page.Number, PageSize: page.Size, Total: total, TotalPages: pages}
}

// Detalle bundles an expediente with its indicios and approval history.
type Detalle struct {
	Expediente *Expediente              `json:"expediente"`
	Indicios   []*indiciomodels.Indicio `json:"indicios"`
	Historial  []*HistorialEntry        `json:"historial"`
}
