package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath = "config.toml"
	DefaultHTTPAddr   = ":8080"
	DefaultPGHost     = "127.0.0.1"
	DefaultPGPort     = 5432
	DefaultPGUser     = "postgres"
	DefaultPGDatabase = "larkbridge"
	DefaultPGSSLMode  = "disable"
	DefaultDataRoot   = "data"
	DefaultSignedTTL  = "1h"
	DefaultMaxTokens  = 4096
)

// Inbound delivery modes for a tenant.
const (
	InboundModeWebhook   = "webhook"
	InboundModeWebsocket = "websocket"
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Postgres PostgresConfig `toml:"postgres"`
	Storage  StorageConfig  `toml:"storage"`
	Compute  ComputeConfig  `toml:"compute"`
	Tenants  []TenantConfig `toml:"tenants" validate:"required,min=1,dive"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// DSN returns the pgx connection string for the configured database.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// StorageConfig configures the object store used for inbound media.
type StorageConfig struct {
	DataRoot string `toml:"data_root"`
	// BaseURL is the externally reachable prefix for signed object URLs.
	BaseURL string `toml:"base_url"`
	// SignSecret signs time-limited retrieval URLs.
	SignSecret string `toml:"sign_secret"`
	SignedTTL  string `toml:"signed_ttl"`
}

// ComputeConfig holds the downstream compute backend parameters.
type ComputeConfig struct {
	Endpoint    string  `toml:"endpoint" validate:"required,url"`
	APIKey      string  `toml:"api_key"`
	WSEndpoint  string  `toml:"ws_endpoint"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	TemplateID  string  `toml:"template_id"`
	QAMode      bool    `toml:"qa_mode"`
	MultiRound  bool    `toml:"multi_round"`
	Trace       bool    `toml:"trace"`
	HideRefDoc  bool    `toml:"hide_ref_doc"`
}

// TenantConfig is one Lark application served by this deployment.
type TenantConfig struct {
	AppID        string `toml:"app_id" validate:"required"`
	AppSecret    string `toml:"app_secret" validate:"required"`
	FeatureLabel string `toml:"feature_label"`
	// InboundMode selects webhook (default) or websocket long connection.
	InboundMode string `toml:"inbound_mode" validate:"omitempty,oneof=webhook websocket"`
	EncryptKey  string `toml:"encrypt_key"`
	// VerificationToken authenticates webhook callbacks when no encrypt key is set.
	VerificationToken string `toml:"verification_token"`
}

// Load reads the configuration file, applies defaults, and validates it.
// Tenant entries are validated strictly: a partially configured tenant is a
// configuration error, not a tenant to be skipped.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Storage: StorageConfig{
			DataRoot:  DefaultDataRoot,
			SignedTTL: DefaultSignedTTL,
		},
		Compute: ComputeConfig{
			MaxTokens:   DefaultMaxTokens,
			Temperature: 0.1,
		},
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the decoded configuration beyond what toml decoding enforces.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	seen := make(map[string]struct{}, len(cfg.Tenants))
	for _, t := range cfg.Tenants {
		if _, ok := seen[t.AppID]; ok {
			return fmt.Errorf("validate config: duplicate tenant app_id %s", t.AppID)
		}
		seen[t.AppID] = struct{}{}
	}
	return nil
}
