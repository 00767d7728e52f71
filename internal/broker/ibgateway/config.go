package ibgateway

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/ibkr-mcp-server/pkg/errors"
)

// Config contains the connection settings for one IB gateway.
type Config struct {
	// Host and Port locate the gateway's REST bridge.
	Host string `validate:"required_without=BaseURL"`
	Port int    `validate:"gte=0,lte=65535"`
	// BaseURL overrides Host and Port when set.
	BaseURL string
	// AccountID pins the brokerage account. Empty means the account the
	// gateway reports, discovered once and cached.
	AccountID string
	// ClientID is sent with every request so the gateway can tell API
	// clients apart.
	ClientID int `validate:"gte=0"`
	// Username and Password authenticate requests when both are set.
	Username string
	Password string
	// Timeout bounds each gateway request.
	Timeout time.Duration
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid gateway config", err)
	}

	return nil
}
