package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "dicri/pkg/domain"
	dErrors "dicri/pkg/domain-errors"
)

func ptr[T any](v T) *T { return &v }

func TestNewIndicio(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("defaults units and keeps absent measurements nil", func(t *testing.T) {
		in, err := NewIndicio(id.ExpedienteID(3), CreateIndicioCommand{
			NumeroIndicio: " A1 ",
			Attributes:    Attributes{NombreObjeto: ptr("Casquillo")},
		}, id.UserID(7), now)
		require.NoError(t, err)

		assert.Equal(t, "A1", in.NumeroIndicio)
		assert.Equal(t, "cm", in.UnidadMedida)
		assert.Equal(t, "g", in.UnidadPeso)
		assert.Nil(t, in.Peso)
		assert.Nil(t, in.TamanoAlto)
		assert.Equal(t, now, in.FechaRegistro)
		assert.Nil(t, in.FechaModificacion)
	})

	t.Run("explicit units override defaults", func(t *testing.T) {
		in, err := NewIndicio(id.ExpedienteID(3), CreateIndicioCommand{
			NumeroIndicio: "A2",
			Attributes: Attributes{
				NombreObjeto: ptr("Cuchillo"),
				UnidadMedida: ptr("mm"),
				Peso:         ptr(0.0),
				UnidadPeso:   ptr("kg"),
			},
		}, id.UserID(7), now)
		require.NoError(t, err)
		assert.Equal(t, "mm", in.UnidadMedida)
		assert.Equal(t, "kg", in.UnidadPeso)
		require.NotNil(t, in.Peso)
		assert.Zero(t, *in.Peso)
	})

	t.Run("missing nombreObjeto violates invariant", func(t *testing.T) {
		_, err := NewIndicio(id.ExpedienteID(3), CreateIndicioCommand{NumeroIndicio: "A3"}, id.UserID(7), now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestCreateIndicioCommandValidate(t *testing.T) {
	valid := func() CreateIndicioCommand {
		return CreateIndicioCommand{NumeroIndicio: "A1", Attributes: Attributes{NombreObjeto: ptr("Arma")}}
	}

	tests := []struct {
		name   string
		mutate func(c *CreateIndicioCommand)
		errMsg string
	}{
		{"valid", func(c *CreateIndicioCommand) {}, ""},
		{"blank numero", func(c *CreateIndicioCommand) { c.NumeroIndicio = "  " }, "numeroIndicio is required"},
		{"blank nombre", func(c *CreateIndicioCommand) { c.NombreObjeto = ptr(" ") }, "nombreObjeto is required"},
		{"negative weight", func(c *CreateIndicioCommand) { c.Peso = ptr(-1.5) }, "peso cannot be negative"},
		{"latitude out of range", func(c *CreateIndicioCommand) { c.LatitudGPS = ptr(91.0) }, "latitudGPS must be between -90 and 90"},
		{"longitude out of range", func(c *CreateIndicioCommand) { c.LongitudGPS = ptr(-180.5) }, "longitudGPS must be between -180 and 180"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestApplyAttributes(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	in := &Indicio{NumeroIndicio: "A1", NombreObjeto: "Arma", UnidadMedida: "cm", UnidadPeso: "g"}

	in.ApplyAttributes(Attributes{Color: ptr("negro"), UnidadMedida: ptr("")}, now)

	assert.Equal(t, "A1", in.NumeroIndicio)
	assert.Equal(t, "Arma", in.NombreObjeto)
	assert.Equal(t, "negro", *in.Color)
	assert.Equal(t, "cm", in.UnidadMedida, "empty unit keeps previous value")
	require.NotNil(t, in.FechaModificacion)
	assert.Equal(t, now, *in.FechaModificacion)
}
