package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/ibkr-mcp-server/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestDefaults() {
	cfg, err := LoadConfig("", "")
	suite.Require().NoError(err)

	suite.Equal(TradingModePaper, cfg.TradingMode)
	suite.Equal("ib-gateway", cfg.Host)
	suite.Equal(DefaultPaperPort, cfg.GatewayPort())
	suite.Equal(1, cfg.ClientID)
	suite.False(bool(cfg.ReadOnly))
	suite.Equal(30*time.Second, cfg.HTTPTimeout)
	suite.Equal("info", cfg.LogLevel)
	suite.Empty(cfg.AccountID)
}

func (suite *ConfigTestSuite) TestReadOnlySpellings() {
	tests := []struct {
		value   string
		enabled bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{" Yes ", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"on", false},
		{"enabled", false},
		{"", false},
	}

	for _, tt := range tests {
		suite.Run(tt.value, func() {
			suite.T().Setenv("IBKR_READ_ONLY", tt.value)

			cfg, err := LoadConfig("", "")
			suite.Require().NoError(err)
			suite.Equal(tt.enabled, bool(cfg.ReadOnly))
		})
	}
}

func (suite *ConfigTestSuite) TestLiveModeDefaultPort() {
	suite.T().Setenv("IBKR_TRADING_MODE", "live")

	cfg, err := LoadConfig("", "")
	suite.Require().NoError(err)
	suite.Equal(TradingModeLive, cfg.TradingMode)
	suite.Equal(DefaultLivePort, cfg.GatewayPort())
}

func (suite *ConfigTestSuite) TestExplicitPortWinsOverModeDefault() {
	suite.T().Setenv("IBKR_TRADING_MODE", "live")
	suite.T().Setenv("IBKR_GATEWAY_PORT", "4444")

	cfg, err := LoadConfig("", "")
	suite.Require().NoError(err)
	suite.Equal(4444, cfg.GatewayPort())
}

func (suite *ConfigTestSuite) TestModeCredentials() {
	suite.T().Setenv("IBKR_PAPER_USERNAME", "paper-user")
	suite.T().Setenv("IBKR_PAPER_PASSWORD", "paper-pass")
	suite.T().Setenv("IBKR_LIVE_USERNAME", "live-user")
	suite.T().Setenv("IBKR_LIVE_PASSWORD", "live-pass")

	cfg, err := LoadConfig("", "")
	suite.Require().NoError(err)

	creds := cfg.ModeCredentials()
	suite.Equal("paper-user", creds.Username)
	suite.Equal("paper-pass", creds.Password)
	suite.True(creds.IsSet())

	suite.T().Setenv("IBKR_TRADING_MODE", "live")

	cfg, err = LoadConfig("", "")
	suite.Require().NoError(err)

	creds = cfg.ModeCredentials()
	suite.Equal("live-user", creds.Username)
	suite.Equal("live-pass", creds.Password)
}

func (suite *ConfigTestSuite) TestCredentialsIsSet() {
	suite.False(Credentials{}.IsSet())
	suite.False(Credentials{Username: "u"}.IsSet())
	suite.False(Credentials{Password: "p"}.IsSet())
	suite.True(Credentials{Username: "u", Password: "p"}.IsSet())
}

func (suite *ConfigTestSuite) TestInvalidTradingMode() {
	suite.T().Setenv("IBKR_TRADING_MODE", "sandbox")

	cfg, err := LoadConfig("", "")
	suite.Error(err)
	suite.Nil(cfg)
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
}

func (suite *ConfigTestSuite) TestYAMLFileWithEnvPrecedence() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("trading_mode: live\nhost: gw.internal\nread_only: \"yes\"\n")
	suite.Require().NoError(os.WriteFile(path, content, 0o600))

	suite.T().Setenv("IBKR_HOST", "from-env")

	cfg, err := LoadConfig("", path)
	suite.Require().NoError(err)

	// env wins over file, file wins over defaults
	suite.Equal("from-env", cfg.Host)
	suite.Equal(TradingModeLive, cfg.TradingMode)
	suite.Equal(DefaultLivePort, cfg.GatewayPort())
	suite.True(bool(cfg.ReadOnly))
}

func (suite *ConfigTestSuite) TestYAMLReadOnlyBareBool() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "config.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("read_only: true\n"), 0o600))

	cfg, err := LoadConfig("", path)
	suite.Require().NoError(err)
	suite.True(bool(cfg.ReadOnly))
}

func (suite *ConfigTestSuite) TestMissingNamedEnvFile() {
	cfg, err := LoadConfig(filepath.Join(suite.T().TempDir(), "absent.env"), "")
	suite.Error(err)
	suite.Nil(cfg)
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
}

func (suite *ConfigTestSuite) TestNamedEnvFileLoads() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "test.env")
	suite.Require().NoError(os.WriteFile(path, []byte("IBKR_ACCOUNT_ID=DU999001\n"), 0o600))

	// godotenv mutates the process environment; clean up so later tests
	// see the default again.
	defer os.Unsetenv("IBKR_ACCOUNT_ID")

	cfg, err := LoadConfig(path, "")
	suite.Require().NoError(err)
	suite.Equal("DU999001", cfg.AccountID)
}

func (suite *ConfigTestSuite) TestMalformedYAMLFile() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "config.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("host: [unclosed\n"), 0o600))

	cfg, err := LoadConfig("", path)
	suite.Error(err)
	suite.Nil(cfg)
}
