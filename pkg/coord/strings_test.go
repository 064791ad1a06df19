package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testData struct {
	s    string
	x, y float64
}

func TestStringConvert(t *testing.T) {
	data := []testData{
		{"-12.0464 -77.0428", -12.0464, -77.0428},
		{"-12.0464,-77.0428", -12.0464, -77.0428},
		{"51.49,  -35.14", 51.49, -35.14},
		{"10; 20", 10, 20},
		{"51.49N  35.14E", 51.49, 35.14},
		{"51.49N,  35.14w", 51.49, -35.14},
		{"12.05 S 77.04 O", -12.05, -77.04},
	}

	for _, d := range data {
		t.Run(d.s, func(t *testing.T) {
			lat, lon, ok, err := StringToLatLon(d.s)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, d.x, lat)
			assert.Equal(t, d.y, lon)
		})
	}
}

func TestNoCoordinates(t *testing.T) {
	for _, s := range []string{"", "  ", "Lima, Perú", "12.5"} {
		_, _, ok, err := StringToLatLon(s)
		require.NoError(t, err)
		assert.False(t, ok, s)
	}
}

func TestOutOfRange(t *testing.T) {
	_, _, ok, err := StringToLatLon("95.0, 10.0")
	require.ErrorIs(t, err, ErrRange)
	assert.False(t, ok)

	_, _, _, err = StringToLatLon("10N 190E")
	require.ErrorIs(t, err, ErrRange)
}
