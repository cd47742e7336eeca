package models

import (
	"strconv"

	dErrors "dicri/pkg/domain-errors"
)

// Estado is the workflow state of an expediente. The numeric values are the
// persisted representation and must not change.
type Estado int

const (
	EstadoBorrador   Estado = 1
	EstadoEnRevision Estado = 2
	EstadoAprobado   Estado = 3
	EstadoRechazado  Estado = 4
)

var estadoNames = map[Estado]string{
	EstadoBorrador:   "Borrador",
	EstadoEnRevision: "En Revisión",
	EstadoAprobado:   "Aprobado",
	EstadoRechazado:  "Rechazado",
}

func (e Estado) IsValid() bool {
	_, ok := estadoNames[e]
	return ok
}

func (e Estado) String() string {
	if name, ok := estadoNames[e]; ok {
		return name
	}
	return "Desconocido(" + strconv.Itoa(int(e)) + ")"
}

// ParseEstado converts a persisted or client-supplied numeric state.
func ParseEstado(v int) (Estado, error) {
	e := Estado(v)
	if !e.IsValid() {
		return 0, dErrors.New(dErrors.CodeValidation, "estado must be one of 1, 2, 3, 4")
	}
	return e, nil
}

// Prioridad ranks an expediente for coordinators.
type Prioridad string

const (
	PrioridadBaja    Prioridad = "Baja"
	PrioridadNormal  Prioridad = "Normal"
	PrioridadAlta    Prioridad = "Alta"
	PrioridadCritica Prioridad = "Crítica"
)

// ParsePrioridad defaults an empty value to Normal.
func ParsePrioridad(s string) (Prioridad, error) {
	switch p := Prioridad(s); p {
	case "":
		return PrioridadNormal, nil
	case PrioridadBaja, PrioridadNormal, PrioridadAlta, PrioridadCritica:
		return p, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "prioridad must be one of Baja, Normal, Alta, Crítica")
	}
}
