package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("COACH_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 5, cfg.Activity.PerDomainLimit)
	assert.Equal(t, "X-User-Id", cfg.Auth.UserHeader)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coach.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: "9090"
activity:
  per_domain_limit: 3
llm:
  timeout: 30s
`), 0o600))

	t.Setenv("PORT", "7070")
	t.Setenv("LLM_TIMEOUT", "45s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.HTTP.Port)
	assert.Equal(t, 3, cfg.Activity.PerDomainLimit)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("LLM_TIMEOUT", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_TIMEOUT")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"postgres without url", func(c *Config) { c.Storage.Backend = "postgres" }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }},
		{"genai without key", func(c *Config) { c.LLM.Provider = "genai" }},
		{"limit too high", func(c *Config) { c.Activity.PerDomainLimit = 6 }},
		{"unknown auth mode", func(c *Config) { c.Auth.Mode = "oauth" }},
		{"jwt without issuer", func(c *Config) { c.Auth.Mode = "jwt" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
