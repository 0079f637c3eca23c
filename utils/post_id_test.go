package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostIDResolver_Resolve(t *testing.T) {
	const hex = "65a1f0c2b3d4e5f60718293a"

	tests := []struct {
		name       string
		raw        string
		wantErr    error
		wantKey    string
		wantLegacy bool
	}{
		{name: "hex", raw: hex, wantKey: hex},
		{name: "colon prefixed hex", raw: ":" + hex, wantKey: hex},
		{name: "integer", raw: "42", wantKey: "42", wantLegacy: true},
		{name: "colon prefixed integer", raw: ":42", wantKey: "42", wantLegacy: true},
		{name: "negative integer", raw: "-7", wantKey: "-7", wantLegacy: true},
		{name: "24 digits is hex", raw: "123456789012345678901234", wantKey: "123456789012345678901234"},
		{name: "empty", raw: "", wantErr: ErrMissingIdentifier},
		{name: "only colon", raw: ":", wantErr: ErrMissingIdentifier},
		{name: "word", raw: "abc", wantErr: ErrInvalidIdentifier},
		{name: "uppercase hex", raw: strings.ToUpper(hex), wantErr: ErrInvalidIdentifier},
		{name: "short hex", raw: hex[:23], wantErr: ErrInvalidIdentifier},
		{name: "long hex", raw: hex + "0", wantErr: ErrInvalidIdentifier},
		{name: "double colon", raw: "::" + hex, wantErr: ErrInvalidIdentifier},
		{name: "integer overflow", raw: "99999999999999999999", wantErr: ErrInvalidIdentifier},
		{name: "float", raw: "1.5", wantErr: ErrInvalidIdentifier},
	}

	r := NewPostIDResolver(true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := r.Resolve(tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, key.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, key.String())
			assert.Equal(t, tt.wantLegacy, key.IsLegacy())
		})
	}
}

func TestPostIDResolver_LegacyDisabled(t *testing.T) {
	r := NewPostIDResolver(false)

	_, err := r.Resolve("42")
	require.ErrorIs(t, err, ErrInvalidIdentifier)

	key, err := r.Resolve(":65a1f0c2b3d4e5f60718293a")
	require.NoError(t, err)
	assert.Equal(t, "65a1f0c2b3d4e5f60718293a", key.Hex())
}
