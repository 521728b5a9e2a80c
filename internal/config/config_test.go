package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwise/syncengine/internal/models"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:8080", cfg.Server.URL)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, time.Second, cfg.Sync.BackoffBase)
	assert.Equal(t, 30*time.Second, cfg.Sync.BackoffCap)
	assert.Equal(t, 5, cfg.Sync.MaxAttempts)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server.URL, cfg.Server.URL)
}

func TestLoad_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  url: https://sync.pathwise.app
  request_timeout: 10s
storage:
  path: /tmp/pathwise.db
sync:
  backoff_base: 500ms
  backoff_cap: 15s
  max_attempts: 3
policies:
  subjects: lww
  preferences: reject
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://sync.pathwise.app", cfg.Server.URL)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "/tmp/pathwise.db", cfg.Storage.Path)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.BackoffBase)
	assert.Equal(t, 15*time.Second, cfg.Sync.BackoffCap)
	assert.Equal(t, 3, cfg.Sync.MaxAttempts)
	assert.Equal(t, models.PolicyLWW, cfg.Policies[models.ResourceSubjects])
	assert.Equal(t, models.PolicyReject, cfg.Policies[models.ResourcePreferences])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [broken"), 0600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(envServerURL, "https://env.pathwise.app")
	t.Setenv(envDBPath, "/tmp/env.db")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://env.pathwise.app", cfg.Server.URL)
	assert.Equal(t, "/tmp/env.db", cfg.Storage.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "empty server url",
			mutate:  func(c *Config) { c.Server.URL = "" },
			wantErr: true,
		},
		{
			name:    "zero max attempts",
			mutate:  func(c *Config) { c.Sync.MaxAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "negative backoff base",
			mutate:  func(c *Config) { c.Sync.BackoffBase = -time.Second },
			wantErr: true,
		},
		{
			name:    "cap below base",
			mutate:  func(c *Config) { c.Sync.BackoffCap = c.Sync.BackoffBase / 2 },
			wantErr: true,
		},
		{
			name: "unknown resource type in policies",
			mutate: func(c *Config) {
				c.Policies = map[models.ResourceType]models.Policy{"widgets": models.PolicyAccept}
			},
			wantErr: true,
		},
		{
			name: "unknown policy",
			mutate: func(c *Config) {
				c.Policies = map[models.ResourceType]models.Policy{models.ResourceSubjects: "vote"}
			},
			wantErr: true,
		},
		{
			name: "valid policies",
			mutate: func(c *Config) {
				c.Policies = map[models.ResourceType]models.Policy{
					models.ResourceSubjects: models.PolicyMerge,
					models.ResourceQuiz:     models.PolicyLWW,
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
