package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct error", func(t *testing.T) {
		err := New(CodeConflict, "numero_expediente already exists")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeForbidden, "nope"))
		assert.True(t, HasCode(err, CodeForbidden))
	})

	t.Run("uncoded errors are internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "store unavailable")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "store unavailable: connection refused", err.Error())
	assert.True(t, IsRetryable(err))
}

func TestWithDetail(t *testing.T) {
	err := New(CodeForbidden, "wrong state").
		WithDetail("estado", "En Revisión").
		WithDetail("reason", "state")

	details := DetailsOf(fmt.Errorf("wrapped: %w", err))
	require.NotNil(t, details)
	assert.Equal(t, "En Revisión", details["estado"])
	assert.Equal(t, "state", details["reason"])
	assert.False(t, IsRetryable(err))
}
