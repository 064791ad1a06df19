package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ClientEnvPrefix = "SUPLICA"
	ServerEnvPrefix = "SUPLICA_SERVER"
)

type AppConfig struct {
	v *viper.Viper
}

func newConfig(defaults func(v *viper.Viper)) *AppConfig {
	c := &AppConfig{v: viper.New()}

	defaults(c.v)

	return c
}

func NewClientConfig() *AppConfig {
	return newConfig(setClientDefaults)
}

func NewServerConfig() *AppConfig {
	return newConfig(setServerDefaults)
}

// Load merges the given yaml files, later files win. Returns true if any file was read.
func (c *AppConfig) Load(filename ...string) bool {
	loaded := false

	for _, name := range filename {
		if name == "" {
			continue
		}

		c.v.SetConfigFile(name)
		c.v.SetConfigType("yaml")

		if err := c.v.MergeInConfig(); err != nil {
			slog.Info(fmt.Sprintf("error loading config: %s", err.Error()))
		} else {
			loaded = true
		}
	}

	return loaded
}

// LoadEnv enables overrides like PREFIX_SSL_CERT for ssl.cert.
func (c *AppConfig) LoadEnv(prefix string) {
	c.v.SetEnvPrefix(prefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()
}

func (c *AppConfig) Bool(key string) bool {
	return c.v.GetBool(key)
}

func (c *AppConfig) String(key string) string {
	return c.v.GetString(key)
}

func (c *AppConfig) Float64(key string) float64 {
	return c.v.GetFloat64(key)
}

func (c *AppConfig) Int(key string) int {
	return c.v.GetInt(key)
}

func (c *AppConfig) Duration(key string) time.Duration {
	return c.v.GetDuration(key)
}

func (c *AppConfig) Strings(key string) []string {
	return c.v.GetStringSlice(key)
}

func (c *AppConfig) Set(key string, v any) {
	c.v.Set(key, v)
}

func (c *AppConfig) APIURL() string {
	return c.v.GetString("api_url")
}

func (c *AppConfig) HTTPTimeout() time.Duration {
	return c.v.GetDuration("http_timeout")
}

func (c *AppConfig) PollInterval() time.Duration {
	return c.v.GetDuration("poll_interval")
}

func (c *AppConfig) ReconcileDelay() time.Duration {
	return c.v.GetDuration("reconcile_delay")
}

func (c *AppConfig) SessionFile() string {
	return c.v.GetString("session_file")
}

func (c *AppConfig) LogFile() string {
	return c.v.GetString("log_file")
}

func (c *AppConfig) LegacyLogin() bool {
	return c.v.GetBool("legacy_login")
}

func (c *AppConfig) GeocoderURL() string {
	return c.v.GetString("geocoder_url")
}

func (c *AppConfig) MyPosition() (float64, float64) {
	return c.v.GetFloat64("me.lat"), c.v.GetFloat64("me.lon")
}

func (c *AppConfig) APIAddr() string {
	return c.v.GetString("api_addr")
}

func (c *AppConfig) DB() string {
	return c.v.GetString("db")
}

func (c *AppConfig) CodesFile() string {
	return c.v.GetString("codes_file")
}

func (c *AppConfig) TokenKey() string {
	return c.v.GetString("token_key")
}

func (c *AppConfig) TokenTTL() time.Duration {
	return c.v.GetDuration("token_ttl")
}

func (c *AppConfig) RequireToken() bool {
	return c.v.GetBool("require_token")
}

func (c *AppConfig) RegistrationCodes() []string {
	return c.v.GetStringSlice("registration_code")
}

func setClientDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "http://localhost:8080/api.php")
	v.SetDefault("http_timeout", time.Second*10)
	v.SetDefault("poll_interval", time.Second*2)
	v.SetDefault("reconcile_delay", time.Second)
	v.SetDefault("session_file", "suplica_session.yml")
	v.SetDefault("log_file", "suplica.log")
	v.SetDefault("legacy_login", false)
	v.SetDefault("geocoder_url", "https://nominatim.openstreetmap.org/search")

	v.SetDefault("ssl.cert", "")
	v.SetDefault("ssl.password", "")
	v.SetDefault("ssl.strict", true)

	v.SetDefault("me.lat", -12.0464)
	v.SetDefault("me.lon", -77.0428)
}

func setServerDefaults(v *viper.Viper) {
	v.SetDefault("api_addr", ":8080")
	v.SetDefault("db", "suplica.sqlite")
	v.SetDefault("codes_file", "codes.yml")
	v.SetDefault("token_key", "")
	v.SetDefault("token_ttl", time.Hour*24*30)
	v.SetDefault("require_token", false)
	v.SetDefault("registration_code", []string{})

	v.SetDefault("ssl.cert", "")
	v.SetDefault("ssl.key", "")
}
