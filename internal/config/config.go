// Package config loads the process configuration for the server. Settings
// are read once at startup from an optional YAML file and the environment;
// environment variables win over file values. There is no hot reload.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rxtech-lab/ibkr-mcp-server/pkg/errors"
	"gopkg.in/yaml.v3"
)

// TradingMode selects which gateway profile the server connects to. The two
// profiles differ only by port and credentials.
type TradingMode string

const (
	TradingModePaper TradingMode = "paper"
	TradingModeLive  TradingMode = "live"
)

// The IB gateway exposes the paper API and the live API on different ports.
const (
	DefaultPaperPort = 4002
	DefaultLivePort  = 4001
)

const (
	defaultHost        = "ib-gateway"
	defaultClientID    = 1
	defaultHTTPTimeout = 30 * time.Second
	defaultLogLevel    = "info"
)

// ReadOnlyFlag is a boolean with fixed accepted spellings: "true", "1" and
// "yes" (case-insensitive, trimmed) enable it, anything else disables it.
// Unrecognized spellings are never an error.
type ReadOnlyFlag bool

// Decode implements envconfig.Decoder.
func (f *ReadOnlyFlag) Decode(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		*f = true
	default:
		*f = false
	}

	return nil
}

// UnmarshalYAML applies the same spelling rule to file values.
func (f *ReadOnlyFlag) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}

		*f = ReadOnlyFlag(b)

		return nil
	}

	return f.Decode(raw)
}

// Credentials is one username/password pair. The gateway receives the pair
// matching the active trading mode.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// IsSet reports whether both halves of the pair are present.
func (c Credentials) IsSet() bool {
	return c.Username != "" && c.Password != ""
}

// Config is the complete process configuration.
type Config struct {
	// TradingMode selects paper or live. Defaults to paper.
	TradingMode TradingMode `envconfig:"IBKR_TRADING_MODE" yaml:"trading_mode" validate:"required,oneof=paper live"`
	// Host is the gateway hostname.
	Host string `envconfig:"IBKR_HOST" yaml:"host" validate:"required"`
	// Port overrides the mode's default gateway port when nonzero.
	Port int `envconfig:"IBKR_GATEWAY_PORT" yaml:"port" validate:"gte=0,lte=65535"`
	// ClientID is forwarded to the gateway to distinguish API clients.
	ClientID int `envconfig:"IBKR_CLIENT_ID" yaml:"client_id" validate:"gte=0"`
	// AccountID pins the brokerage account. Empty means the first account
	// the gateway reports.
	AccountID string `envconfig:"IBKR_ACCOUNT_ID" yaml:"account_id"`
	// ReadOnly disables all account-mutating operations for the life of
	// the process.
	ReadOnly ReadOnlyFlag `envconfig:"IBKR_READ_ONLY" yaml:"read_only"`
	// Paper and Live are the per-mode credential pairs.
	Paper struct {
		Username string `envconfig:"IBKR_PAPER_USERNAME" yaml:"username"`
		Password string `envconfig:"IBKR_PAPER_PASSWORD" yaml:"password"`
	} `yaml:"paper"`
	Live struct {
		Username string `envconfig:"IBKR_LIVE_USERNAME" yaml:"username"`
		Password string `envconfig:"IBKR_LIVE_PASSWORD" yaml:"password"`
	} `yaml:"live"`
	// HTTPTimeout bounds every gateway request.
	HTTPTimeout time.Duration `envconfig:"IBKR_HTTP_TIMEOUT" yaml:"http_timeout"`
	// LogLevel is a zap level name.
	LogLevel string `envconfig:"LOG_LEVEL" yaml:"log_level"`
}

// LoadConfig reads the configuration once. envFile and yamlFile may be
// empty; a named file that cannot be read is an error, the implicit .env
// is best-effort. Precedence: environment over file over defaults.
func LoadConfig(envFile string, yamlFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to load env file %s", envFile)
		}
	} else {
		// A missing .env in the working directory is fine.
		_ = godotenv.Load()
	}

	var cfg Config

	if yamlFile != "" {
		data, err := os.ReadFile(yamlFile)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", yamlFile)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config file %s", yamlFile)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to process environment", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills every unset field. Defaults apply after both sources
// so neither source is shadowed by them.
func (c *Config) applyDefaults() {
	if c.TradingMode == "" {
		c.TradingMode = TradingModePaper
	}

	if c.Host == "" {
		c.Host = defaultHost
	}

	if c.ClientID == 0 {
		c.ClientID = defaultClientID
	}

	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}

	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	return nil
}

// GatewayPort returns the explicit port when set, otherwise the default
// port of the active trading mode.
func (c *Config) GatewayPort() int {
	if c.Port != 0 {
		return c.Port
	}

	if c.TradingMode == TradingModeLive {
		return DefaultLivePort
	}

	return DefaultPaperPort
}

// ModeCredentials returns the credential pair matching the active mode.
func (c *Config) ModeCredentials() Credentials {
	if c.TradingMode == TradingModeLive {
		return Credentials{Username: c.Live.Username, Password: c.Live.Password}
	}

	return Credentials{Username: c.Paper.Username, Password: c.Paper.Password}
}
