package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pathwise/syncengine/internal/models"
)

// Env override variable names
const (
	envServerURL = "PATHWISE_SERVER_URL"
	envDBPath    = "PATHWISE_DB_PATH"
)

// Config — конфигурация движка синхронизации.
type Config struct {
	Policies map[models.ResourceType]models.Policy `yaml:"policies"`
	Server   ServerConfig                          `yaml:"server"`
	Storage  StorageConfig                         `yaml:"storage"`
	Sync     SyncConfig                            `yaml:"sync"`
}

// ServerConfig описывает подключение к бэкенду.
type ServerConfig struct {
	URL            string        `yaml:"url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig описывает локальное durable-хранилище.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// SyncConfig — политика ретраев очереди.
type SyncConfig struct {
	BackoffBase time.Duration `yaml:"backoff_base"`
	BackoffCap  time.Duration `yaml:"backoff_cap"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:            "http://localhost:8080",
			RequestTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Path: "pathwise-sync.db",
		},
		Sync: SyncConfig{
			BackoffBase: time.Second,
			BackoffCap:  30 * time.Second,
			MaxAttempts: 5,
		},
		Policies: nil, // nil = политики по умолчанию resolver'а
	}
}

// Load читает конфигурацию из YAML файла поверх значений по умолчанию и
// применяет переопределения из окружения. path может быть пустым —
// тогда используются только defaults и окружение.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv применяет переменные окружения поверх файла.
func (c *Config) applyEnv() {
	if v := os.Getenv(envServerURL); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		c.Storage.Path = v
	}
}

// Validate проверяет согласованность конфигурации.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url must not be empty")
	}
	if c.Sync.MaxAttempts < 1 {
		return fmt.Errorf("sync.max_attempts must be at least 1, got %d", c.Sync.MaxAttempts)
	}
	if c.Sync.BackoffBase <= 0 {
		return fmt.Errorf("sync.backoff_base must be positive")
	}
	if c.Sync.BackoffCap < c.Sync.BackoffBase {
		return fmt.Errorf("sync.backoff_cap must be >= sync.backoff_base")
	}
	for t, p := range c.Policies {
		if !models.KnownResourceType(t) {
			return fmt.Errorf("unknown resource type %q in policies", t)
		}
		if !models.KnownPolicy(p) {
			return fmt.Errorf("unknown policy %q for resource type %q", p, t)
		}
	}
	return nil
}
