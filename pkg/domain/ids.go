// Package domain holds identifier types shared across DICRI packages.
//
// Identifiers are positive integers assigned by the store. Each entity gets
// its own type so a user ID can never be passed where an expediente ID is
// expected.
package domain

import (
	"strconv"
	"strings"
	"unicode/utf8"

	dErrors "dicri/pkg/domain-errors"
)

type (
	ExpedienteID int64
	IndicioID    int64
	UserID       int64
	HistorialID  int64
)

// maxIDLength bounds parsing work at trust boundaries; int64 has 19 digits.
const maxIDLength = 19

func (id ExpedienteID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id IndicioID) String() string    { return strconv.FormatInt(int64(id), 10) }
func (id UserID) String() string       { return strconv.FormatInt(int64(id), 10) }
func (id HistorialID) String() string  { return strconv.FormatInt(int64(id), 10) }

func (id ExpedienteID) IsNil() bool { return id <= 0 }
func (id IndicioID) IsNil() bool    { return id <= 0 }
func (id UserID) IsNil() bool       { return id <= 0 }

func ParseExpedienteID(s string) (ExpedienteID, error) {
	v, err := parsePositive(s, "expediente ID")
	return ExpedienteID(v), err
}

func ParseIndicioID(s string) (IndicioID, error) {
	v, err := parsePositive(s, "indicio ID")
	return IndicioID(v), err
}

func ParseUserID(s string) (UserID, error) {
	v, err := parsePositive(s, "user ID")
	return UserID(v), err
}

func parsePositive(s, label string) (int64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" required")
	}
	if len(s) > maxIDLength || !utf8.ValidString(s) || strings.TrimSpace(s) != s {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return v, nil
}
