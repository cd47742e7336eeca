//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseExpedienteID checks that parsing never panics on arbitrary input
// and that accepted IDs round-trip.
func FuzzParseExpedienteID(f *testing.F) {
	f.Add("")
	f.Add("1")
	f.Add("0")
	f.Add("-5")
	f.Add("'; DROP TABLE expedientes;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("12\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseExpedienteID(input)
		if err != nil {
			return
		}
		if id <= 0 {
			t.Errorf("accepted non-positive ID %d", id)
		}
		roundTrip, err := ParseExpedienteID(id.String())
		if err != nil {
			t.Errorf("valid ID failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed ID value")
		}
		if !utf8.ValidString(input) {
			t.Error("non-UTF8 input was accepted")
		}
	})
}
