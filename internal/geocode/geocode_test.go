package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		switch r.URL.Query().Get("q") {
		case "Lima, Lima, Perú":
			_, _ = w.Write([]byte(`[{"lat":"-12.0464","lon":"-77.0428","display_name":"Lima"}]`))
		case "broken":
			_, _ = w.Write([]byte(`[{"lat":"x","lon":"y"}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	g := New(srv.URL, time.Second)

	lat, lon, err := g.Lookup(context.Background(), "Lima, Lima, Perú")
	require.NoError(t, err)
	assert.InDelta(t, -12.0464, lat, 1e-9)
	assert.InDelta(t, -77.0428, lon, 1e-9)

	_, _, err = g.Lookup(context.Background(), " Lima, Lima, Perú ")
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())

	_, _, err = g.Lookup(context.Background(), "Atlantis")
	require.ErrorIs(t, err, ErrNotFound)

	_, _, err = g.Lookup(context.Background(), "  ")
	require.ErrorIs(t, err, ErrNotFound)

	_, _, err = g.Lookup(context.Background(), "broken")
	require.Error(t, err)
}
