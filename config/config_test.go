package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
e621:
  username: tester
  api_key: secret-key
identity:
  project: myapp
  version: "1.2"
  creator: tester
download:
  directory: /tmp/esix
  concurrency: 8
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://e621.net", cfg.E621.BaseURL)
	assert.Equal(t, "tester", cfg.E621.Username)
	assert.Equal(t, "secret-key", cfg.E621.APIKey)
	assert.Equal(t, "myapp", cfg.Identity.Project)
	assert.Equal(t, "1.2", cfg.Identity.Version)
	assert.Equal(t, "/tmp/esix", cfg.Download.Directory)
	assert.Equal(t, 8, cfg.Download.Concurrency)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
identity:
  creator: tester
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://e621.net", cfg.E621.BaseURL)
	assert.Equal(t, "esix", cfg.Identity.Project)
	assert.Equal(t, 4, cfg.Download.Concurrency)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Color)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
identity:
  creator: tester
`)
	t.Setenv("ESIX_E621_API_KEY", "env-secret")
	t.Setenv("ESIX_E621_USERNAME", "env-user")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-user", cfg.E621.Username)
	assert.Equal(t, "env-secret", cfg.E621.APIKey)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing creator",
			content: "download:\n  concurrency: 4\n",
			wantErr: "identity.creator is required",
		},
		{
			name:    "username without api key",
			content: "e621:\n  username: tester\nidentity:\n  creator: tester\n",
			wantErr: "e621.api_key is required",
		},
		{
			name:    "concurrency too high",
			content: "identity:\n  creator: tester\ndownload:\n  concurrency: 64\n",
			wantErr: "download.concurrency must be between 1 and 16",
		},
		{
			name:    "concurrency too low",
			content: "identity:\n  creator: tester\ndownload:\n  concurrency: 0\n",
			wantErr: "download.concurrency must be between 1 and 16",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
