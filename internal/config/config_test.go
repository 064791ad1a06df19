package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientDefaults(t *testing.T) {
	c := NewClientConfig()

	require.Equal(t, time.Second*2, c.PollInterval())
	require.Equal(t, time.Second, c.ReconcileDelay())
	require.False(t, c.LegacyLogin())
	require.True(t, c.Bool("ssl.strict"))
	require.Equal(t, "suplica.log", c.LogFile())
}

func TestLoad(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "suplica.yml")

	f, err := os.Create(fname)
	require.NoError(t, err)

	fmt.Fprint(f, "---\napi_url: http://example.com/api.php\npoll_interval: 500ms\nlegacy_login: true\nme:\n  lat: 10.5\n")
	f.Close()

	c := NewClientConfig()
	require.True(t, c.Load(fname))
	require.False(t, c.Load(filepath.Join(t.TempDir(), "missing.yml")))

	require.Equal(t, "http://example.com/api.php", c.APIURL())
	require.Equal(t, time.Millisecond*500, c.PollInterval())
	require.True(t, c.LegacyLogin())

	lat, lon := c.MyPosition()
	require.InDelta(t, 10.5, lat, 1e-9)
	require.InDelta(t, -77.0428, lon, 1e-9)
}

func TestEnv(t *testing.T) {
	t.Setenv("SUPLICA_SERVER_API_ADDR", ":9999")
	t.Setenv("SUPLICA_SERVER_SSL_CERT", "server.pem")

	c := NewServerConfig()
	c.LoadEnv(ServerEnvPrefix)

	require.Equal(t, ":9999", c.APIAddr())
	require.Equal(t, "server.pem", c.String("ssl.cert"))
	require.Equal(t, "suplica.sqlite", c.DB())
}
