package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These describe the state of stored records, not validation failures:
// - ErrNotFound: record does not exist in store
// - ErrAlreadyUsed: a unique key (numero_expediente, numero_indicio) is taken
// - ErrInvalidState: a conditional write found the record in another state
// - ErrUnavailable: store temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)

// ErrPreconditionFailed reports that a guarded write found its precondition
// false under lock (for example, submitting an expediente with no indicios).
var ErrPreconditionFailed = errors.New("precondition failed")
