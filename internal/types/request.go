package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/ibkr-mcp-server/pkg/errors"
	"github.com/shopspring/decimal"
)

// Defaults filled into omitted request fields before validation. Duration
// and bar size use the gateway's own period grammar and pass through to it
// verbatim.
const (
	DefaultExchange = "SMART"
	DefaultDuration = "1 D"
	DefaultBarSize  = "1 hour"
)

// QuoteRequest asks for a point-in-time quote of one stock.
type QuoteRequest struct {
	Symbol   string `json:"symbol" yaml:"symbol" validate:"required"`
	Exchange string `json:"exchange" yaml:"exchange" validate:"required"`
}

// ApplyDefaults fills omitted fields.
func (r *QuoteRequest) ApplyDefaults() {
	r.Exchange = exchangeOrDefault(r.Exchange)
}

// Validate validates the QuoteRequest struct.
func (r *QuoteRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid quote request", err)
	}

	return nil
}

// HistoryRequest asks for a series of OHLCV bars. Duration and BarSize are
// opaque gateway period strings ("1 D", "1 hour"); the gateway is the
// authority on their grammar.
type HistoryRequest struct {
	Symbol   string `json:"symbol" yaml:"symbol" validate:"required"`
	Duration string `json:"duration" yaml:"duration" validate:"required"`
	BarSize  string `json:"bar_size" yaml:"bar_size" validate:"required"`
	Exchange string `json:"exchange" yaml:"exchange" validate:"required"`
}

// ApplyDefaults fills omitted fields.
func (r *HistoryRequest) ApplyDefaults() {
	if r.Duration == "" {
		r.Duration = DefaultDuration
	}

	if r.BarSize == "" {
		r.BarSize = DefaultBarSize
	}

	r.Exchange = exchangeOrDefault(r.Exchange)
}

// Validate validates the HistoryRequest struct.
func (r *HistoryRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid history request", err)
	}

	return nil
}

// OptionChainRequest asks which option contracts are listed for an
// underlying stock.
type OptionChainRequest struct {
	Symbol   string `json:"symbol" yaml:"symbol" validate:"required"`
	Exchange string `json:"exchange" yaml:"exchange" validate:"required"`
}

// ApplyDefaults fills omitted fields.
func (r *OptionChainRequest) ApplyDefaults() {
	r.Exchange = exchangeOrDefault(r.Exchange)
}

// Validate validates the OptionChainRequest struct.
func (r *OptionChainRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid option chain request", err)
	}

	return nil
}

// LimitOrderRequest is the raw argument shape of a limit order submission.
type LimitOrderRequest struct {
	Symbol     string          `json:"symbol" yaml:"symbol"`
	Action     OrderAction     `json:"action" yaml:"action"`
	Quantity   int64           `json:"quantity" yaml:"quantity"`
	LimitPrice decimal.Decimal `json:"limit_price" yaml:"limit_price"`
	Exchange   string          `json:"exchange" yaml:"exchange"`
}

// Ticket normalizes the request into an order ticket with a fresh client
// order id. An omitted limit price stays None so validation can name it.
func (r LimitOrderRequest) Ticket() OrderTicket {
	return OrderTicket{
		ClientID:   uuid.NewString(),
		Symbol:     r.Symbol,
		Action:     r.Action,
		OrderType:  OrderTypeLimit,
		Quantity:   r.Quantity,
		Exchange:   exchangeOrDefault(r.Exchange),
		LimitPrice: priceOption(r.LimitPrice),
	}
}

// MarketOrderRequest is the raw argument shape of a market order submission.
type MarketOrderRequest struct {
	Symbol   string      `json:"symbol" yaml:"symbol"`
	Action   OrderAction `json:"action" yaml:"action"`
	Quantity int64       `json:"quantity" yaml:"quantity"`
	Exchange string      `json:"exchange" yaml:"exchange"`
}

// Ticket normalizes the request into an order ticket with a fresh client
// order id.
func (r MarketOrderRequest) Ticket() OrderTicket {
	return OrderTicket{
		ClientID:  uuid.NewString(),
		Symbol:    r.Symbol,
		Action:    r.Action,
		OrderType: OrderTypeMarket,
		Quantity:  r.Quantity,
		Exchange:  exchangeOrDefault(r.Exchange),
	}
}

// StopOrderRequest is the raw argument shape of a stop order submission.
type StopOrderRequest struct {
	Symbol    string          `json:"symbol" yaml:"symbol"`
	Action    OrderAction     `json:"action" yaml:"action"`
	Quantity  int64           `json:"quantity" yaml:"quantity"`
	StopPrice decimal.Decimal `json:"stop_price" yaml:"stop_price"`
	Exchange  string          `json:"exchange" yaml:"exchange"`
}

// Ticket normalizes the request into an order ticket with a fresh client
// order id. An omitted stop price stays None so validation can name it.
func (r StopOrderRequest) Ticket() OrderTicket {
	return OrderTicket{
		ClientID:  uuid.NewString(),
		Symbol:    r.Symbol,
		Action:    r.Action,
		OrderType: OrderTypeStop,
		Quantity:  r.Quantity,
		Exchange:  exchangeOrDefault(r.Exchange),
		StopPrice: priceOption(r.StopPrice),
	}
}

func exchangeOrDefault(exchange string) string {
	if exchange == "" {
		return DefaultExchange
	}

	return exchange
}

// priceOption keeps an absent price distinguishable from an explicit zero;
// both are invalid but produce different validation messages.
func priceOption(price decimal.Decimal) optional.Option[decimal.Decimal] {
	if price.IsZero() {
		return optional.None[decimal.Decimal]()
	}

	return optional.Some(price)
}
