package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "GIN_MODE", "ACCESS_TOKEN", "CUSTOM_OBJECT_TYPE", "HUBSPOT_BASE_URL", "REMOTE_TIMEOUT", "LOG_LEVEL", "SERIALIZE_SUBJECTS"} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[server]
port = "8081"

[hubspot]
custom_object_type = "2-1234"
timeout_seconds = 3

[association]
serialize_subjects = true

[concurrency]
enrichment = 2
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "2-1234", cfg.HubSpot.CustomObjectType)
	assert.Equal(t, 3*time.Second, cfg.Timeout())
	assert.True(t, cfg.Association.SerializeSubjects)
	assert.Equal(t, 2, cfg.Concurrency.Enrichment)
	// Untouched keys keep their defaults.
	assert.Equal(t, 4, cfg.Concurrency.Retire)
	assert.Equal(t, 100, cfg.HubSpot.PageSize)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[server\nport="))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse TOML")
}

func TestResolve_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[hubspot]
access_token = "from-file"
custom_object_type = "2-1"
`)
	clearEnv(t)
	t.Setenv("ACCESS_TOKEN", "from-env")
	t.Setenv("PORT", "9000")
	t.Setenv("REMOTE_TIMEOUT", "7")
	t.Setenv("SERIALIZE_SUBJECTS", "true")

	cfg, err := Resolve(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.HubSpot.AccessToken)
	assert.Equal(t, "2-1", cfg.HubSpot.CustomObjectType)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 7*time.Second, cfg.Timeout())
	assert.True(t, cfg.Association.SerializeSubjects)
	assert.NoError(t, cfg.Validate())
}

func TestResolve_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Resolve(filepath.Join(t.TempDir(), "absent.toml"))

	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
}

func TestResolve_BadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("REMOTE_TIMEOUT", "soon")

	_, err := Resolve(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()

	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrMissingAccessToken)
	assert.ErrorIs(t, err, ErrMissingObjectType)

	cfg.HubSpot.AccessToken = "token"
	err = cfg.Validate()
	assert.NotErrorIs(t, err, ErrMissingAccessToken)
	assert.ErrorIs(t, err, ErrMissingObjectType)

	cfg.HubSpot.CustomObjectType = "2-1"
	assert.NoError(t, cfg.Validate())
}
