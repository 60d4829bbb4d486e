package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPaginationParams(t *testing.T) {
	params := DefaultPaginationParams()
	assert.Equal(t, 100, params.Limit)
	assert.Empty(t, params.Cursor)
}

func TestPaginationParams_Validate(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"in range", 50, 50},
		{"zero falls back to default", 0, 100},
		{"negative falls back to default", -10, 100},
		{"over cap clamps", 5000, 1000},
		{"at cap stays", 1000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := PaginationParams{Limit: tt.in}
			params.Validate()
			assert.Equal(t, tt.want, params.Limit)
		})
	}
}

func TestCursor_RoundTrip(t *testing.T) {
	keys := []string{
		"episode:ep-001",
		"episode:idx:enclosure:https://feeds.example.com/42.mp3",
		"segments:ep-abc",
	}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			encoded := EncodeCursor(key)
			assert.NotEqual(t, key, encoded)

			decoded, err := DecodeCursor(encoded)
			require.NoError(t, err)
			assert.Equal(t, key, decoded)
		})
	}
}

func TestCursor_Empty(t *testing.T) {
	assert.Empty(t, EncodeCursor(""))

	decoded, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	_, err := DecodeCursor("not-valid-base64!!!")
	assert.Error(t, err)
}
