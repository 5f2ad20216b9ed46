package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_SizeLimit(t *testing.T) {
	limit := DefaultMaxInputSize
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Text(strings.Repeat("a", tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestText_ControlChars(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{"Normal Text", "Orders", "Orders"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Text(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestText_InvalidUTF8(t *testing.T) {
	_, err := Text("bad\xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestText_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")
	_, err := Text("12345678901")
	assert.Error(t, err)
	_, err = Text("12345")
	assert.NoError(t, err)
}

func TestAll(t *testing.T) {
	a, b := "x\x00y", "ok"
	require.NoError(t, All(&a, &b))
	assert.Equal(t, "xy", a)

	bad := "\xff"
	assert.Error(t, All(&a, &bad))
}
