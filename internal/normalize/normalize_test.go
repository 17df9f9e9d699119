package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/restock/internal/normalize"
)

func TestParsePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want int64
	}{
		{"19,99 €", 1999},
		{"1.299,99 €", 129999},
		{"49,9 €", 4990},
		{"12,345 €", 1234},
		{"5 €", 500},
		{"€ 7,50", 750},
		{"0,00 €", 0},
		{"", 0},
		{"kostenlos", 0},
		{"1,2,3 €", 0},
		{"-3,00 €", 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, normalize.ParsePrice(tt.text))
		})
	}
}

func TestParseIdentifier(t *testing.T) {
	t.Parallel()

	id, err := normalize.ParseIdentifier(" 75192\n")
	require.NoError(t, err)
	assert.Equal(t, int64(75192), id)

	for _, bad := range []string{"", "abc", "75 192", "-1", "1e5", "99999999999999999999"} {
		_, err := normalize.ParseIdentifier(bad)
		assert.ErrorIs(t, err, normalize.ErrInvalidIdentifier, "input %q", bad)
	}
}

func TestFormatPrice(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0,00", normalize.FormatPrice(0))
	assert.Equal(t, "2,22", normalize.FormatPrice(222))
	assert.Equal(t, "99,99", normalize.FormatPrice(9999))
	assert.Equal(t, "1299,05", normalize.FormatPrice(129905))
}
