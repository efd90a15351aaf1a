// Package config loads dashboard configuration from the environment (with an
// optional .env file) and an optional YAML settings seed.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
)

// APIConfig seeds the settings triple and carries request timeouts.
type APIConfig struct {
	BaseURL       string        `env:"API_BASE_URL" envDefault:"http://localhost:8000" yaml:"base_url"`
	APIKey        string        `env:"API_KEY" yaml:"-"`
	CompanyID     string        `env:"COMPANY_ID" yaml:"company_id,omitempty"`
	Timeout       time.Duration `env:"API_TIMEOUT" envDefault:"30s" yaml:"timeout"`
	UploadTimeout time.Duration `env:"API_UPLOAD_TIMEOUT" envDefault:"120s" yaml:"upload_timeout"`
}

// Intervals are the polling periods of the app shell and page modules.
type Intervals struct {
	Health          time.Duration `env:"HEALTH_INTERVAL" envDefault:"30s" yaml:"health"`
	Dashboard       time.Duration `env:"DASHBOARD_REFRESH" envDefault:"60s" yaml:"dashboard"`
	WorkflowRunning time.Duration `env:"WORKFLOW_REFRESH" envDefault:"15s" yaml:"workflow_running"`
	Agents          time.Duration `env:"AGENTS_REFRESH" envDefault:"20s" yaml:"agents"`
	RunStatus       time.Duration `env:"RUN_STATUS_INTERVAL" envDefault:"5s" yaml:"run_status"`
	RunStatusMax    int           `env:"RUN_STATUS_MAX_ATTEMPTS" envDefault:"120" yaml:"run_status_max_attempts"`
}

// AMQPConfig enables forwarding of workflow events to RabbitMQ.
type AMQPConfig struct {
	URL      string `env:"AMQP_URL" yaml:"url,omitempty"`
	Exchange string `env:"AMQP_EXCHANGE" envDefault:"campaign.workflow" yaml:"exchange"`
	Queue    string `env:"AMQP_QUEUE" envDefault:"dashboard_workflow_events" yaml:"queue"`
}

type Config struct {
	Addr         string `env:"DASHBOARD_ADDR" envDefault:":3001" yaml:"addr"`
	DatabaseURL  string `env:"DATABASE_URL" envDefault:"file:dashboard.db" yaml:"database_url"`
	UseKeyring   bool   `env:"DASHBOARD_KEYRING" yaml:"keyring"`
	CSRFKey      string `env:"DASHBOARD_CSRF_KEY" yaml:"-"`
	SecureCookie bool   `env:"DASHBOARD_SECURE_COOKIE" yaml:"secure_cookie"`
	SeedFile     string `env:"DASHBOARD_SETTINGS_FILE" yaml:"settings_file,omitempty"`
	OTelEndpoint string `env:"DASHBOARD_OTEL_ENDPOINT" yaml:"otel_endpoint,omitempty"`

	API       APIConfig       `yaml:"api"`
	Intervals Intervals       `yaml:"intervals"`
	AMQP      AMQPConfig      `yaml:"amqp"`
	Log       logging.Options `yaml:"logging"`
}

// Load reads .env files (missing files are fine) and parses the environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Debug("no .env file found, relying on OS environment variables")
	}
	return Parse()
}

// Parse parses the current environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Seed returns the settings triple the store starts from. A YAML settings
// file, when configured, takes precedence over the API_* variables.
func (c Config) Seed() (model.Settings, error) {
	seed := model.Settings{
		BaseURL:   model.NormalizeBaseURL(c.API.BaseURL),
		APIKey:    c.API.APIKey,
		CompanyID: c.API.CompanyID,
	}
	if strings.TrimSpace(c.SeedFile) == "" {
		return seed, nil
	}
	fromFile, err := LoadSettingsFile(c.SeedFile)
	if err != nil {
		return seed, err
	}
	if fromFile.BaseURL != "" {
		seed.BaseURL = model.NormalizeBaseURL(fromFile.BaseURL)
	}
	if fromFile.APIKey != "" {
		seed.APIKey = fromFile.APIKey
	}
	if fromFile.CompanyID != "" {
		seed.CompanyID = fromFile.CompanyID
	}
	return seed, nil
}

// LoadSettingsFile reads a YAML document with base_url, api_key and company_id.
func LoadSettingsFile(path string) (model.Settings, error) {
	var s model.Settings
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	return s, nil
}

// YAML renders the effective configuration. Secrets are never included.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// IsPostgres reports whether DatabaseURL points at Postgres.
func (c Config) IsPostgres() bool {
	u := strings.ToLower(c.DatabaseURL)
	return strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://")
}
