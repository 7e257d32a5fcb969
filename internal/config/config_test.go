package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("AUTH_SECRET", "secret")
	t.Setenv("TOKEN_EXPIRY", "2h")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example,http://b.example")

	cfg, err := Load(false)
	require.NoError(t, err)
	require.Equal(t, "duet.db", cfg.DBFile)
	require.Equal(t, 2*time.Hour, cfg.TokenExpiry)
	require.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	require.Equal(t, 100, cfg.SessionBuffer)
}

func TestLoad_OriginsDefaultToBaseURL(t *testing.T) {
	t.Setenv("AUTH_SECRET", "secret")
	t.Setenv("BASE_URL", "https://chat.example.com")

	cfg, err := Load(false)
	require.NoError(t, err)
	require.Equal(t, []string{"https://chat.example.com"}, cfg.AllowedOrigins)
}

func TestLoad_SecretRequired(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	_, err := Load(false)
	require.Error(t, err)

	cfg, err := Load(true)
	require.NoError(t, err)
	require.Empty(t, cfg.AuthSecret)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			AuthSecret:       "s",
			TokenExpiry:      time.Hour,
			SessionBuffer:    1,
			MaxFrameSize:     1,
			MaxContentLength: 1,
			PingInterval:     time.Second,
			LogLevel:         "info",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero expiry", func(c *Config) { c.TokenExpiry = 0 }},
		{"negative cache ttl", func(c *Config) { c.VerifyCacheTTL = -time.Second }},
		{"zero buffer", func(c *Config) { c.SessionBuffer = 0 }},
		{"zero frame size", func(c *Config) { c.MaxFrameSize = 0 }},
		{"zero content length", func(c *Config) { c.MaxContentLength = 0 }},
		{"zero ping", func(c *Config) { c.PingInterval = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }},
	}

	cfg := valid()
	require.NoError(t, cfg.Validate(false))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate(false))
		})
	}
}
