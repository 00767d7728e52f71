package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeMissingParameter     ErrorCode = 101
	ErrCodeInvalidConfiguration ErrorCode = 102
	ErrCodeInvalidQuantity      ErrorCode = 103
	ErrCodeInvalidAction        ErrorCode = 104
	ErrCodeInvalidPrice         ErrorCode = 105
	ErrCodeInvalidOrderID       ErrorCode = 106

	// Policy errors (200-299)
	ErrCodeReadOnlyMode ErrorCode = 200

	// Market data errors (300-399)
	ErrCodeNoMarketData        ErrorCode = 300
	ErrCodeNoEntitlement       ErrorCode = 301
	ErrCodeHistoryUnavailable  ErrorCode = 302
	ErrCodeNoOptionDefinitions ErrorCode = 303

	// Connectivity errors (400-499)
	ErrCodeConnectionFailed ErrorCode = 400
	ErrCodeRequestTimeout   ErrorCode = 401
	ErrCodeGatewayNotReady  ErrorCode = 402

	// Upstream rejection errors (500-599)
	ErrCodeOrderRejected    ErrorCode = 500
	ErrCodeOrderNotFound    ErrorCode = 501
	ErrCodeContractNotFound ErrorCode = 502
	ErrCodeUpstreamRefused  ErrorCode = 503
)

// Kind is the stable, transport-facing label for an error category. MCP
// clients branch on Kind; the numeric codes stay internal.
type Kind string

const (
	KindInternal              Kind = "Internal"
	KindInvalidArgument       Kind = "InvalidArgument"
	KindReadOnlyRejected      Kind = "ReadOnlyRejected"
	KindMarketDataUnavailable Kind = "MarketDataUnavailable"
	KindUpstreamUnavailable   Kind = "UpstreamUnavailable"
	KindUpstreamRejected      Kind = "UpstreamRejected"
)

// Kind returns the category label for the code.
func (c ErrorCode) Kind() Kind {
	switch {
	case c >= 100 && c < 200:
		return KindInvalidArgument
	case c >= 200 && c < 300:
		return KindReadOnlyRejected
	case c >= 300 && c < 400:
		return KindMarketDataUnavailable
	case c >= 400 && c < 500:
		return KindUpstreamUnavailable
	case c >= 500 && c < 600:
		return KindUpstreamRejected
	default:
		return KindInternal
	}
}
