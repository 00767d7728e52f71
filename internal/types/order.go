package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/ibkr-mcp-server/pkg/errors"
	"github.com/shopspring/decimal"
)

type OrderAction string

type OrderType string

type OrderStatus string

const (
	OrderActionBuy  OrderAction = "BUY"
	OrderActionSell OrderAction = "SELL"
)

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeStop   OrderType = "STOP"
)

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusSubmitted OrderStatus = "SUBMITTED"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusInactive  OrderStatus = "INACTIVE"
)

// ReadOnlyRejectionReason is the reason attached to order and cancel results
// refused by the read-only gate.
const ReadOnlyRejectionReason = "read-only mode enabled"

// OrderTicket is the normalized order submission passed to the gateway. One
// ticket produces at most one upstream order.
type OrderTicket struct {
	// ClientID is the caller-side order id, a fresh UUID per ticket.
	ClientID string      `yaml:"client_id" json:"client_id" validate:"required,uuid"`
	Symbol   string      `yaml:"symbol" json:"symbol" validate:"required"`
	Action   OrderAction `yaml:"action" json:"action" validate:"required,oneof=BUY SELL"`
	// OrderType selects which of the price fields must be present:
	// LIMIT requires LimitPrice, STOP requires StopPrice, MARKET requires neither.
	OrderType OrderType `yaml:"order_type" json:"order_type" validate:"required,oneof=MARKET LIMIT STOP"`
	Quantity  int64     `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	Exchange  string    `yaml:"exchange" json:"exchange" validate:"required"`
	// LimitPrice is the limit price. None unless OrderType is LIMIT.
	LimitPrice optional.Option[decimal.Decimal] `yaml:"limit_price" json:"limit_price"`
	// StopPrice is the stop trigger price. None unless OrderType is STOP.
	StopPrice optional.Option[decimal.Decimal] `yaml:"stop_price" json:"stop_price"`
}

// OrderInfo reflects the state of one order on the upstream book at query
// time, open or terminal.
type OrderInfo struct {
	OrderID   int64       `yaml:"order_id" json:"order_id"`
	Symbol    string      `yaml:"symbol" json:"symbol"`
	Action    OrderAction `yaml:"action" json:"action"`
	OrderType OrderType   `yaml:"order_type" json:"order_type"`
	Status    OrderStatus `yaml:"status" json:"status"`
	// Quantity is the total ordered quantity.
	Quantity decimal.Decimal `yaml:"quantity" json:"quantity"`
	// FilledQuantity plus RemainingQuantity equals Quantity.
	FilledQuantity    decimal.Decimal `yaml:"filled_quantity" json:"filled_quantity"`
	RemainingQuantity decimal.Decimal `yaml:"remaining_quantity" json:"remaining_quantity"`
	AvgFillPrice      decimal.Decimal `yaml:"avg_fill_price" json:"avg_fill_price"`
	// LimitPrice is present on LIMIT orders only.
	LimitPrice optional.Option[decimal.Decimal] `yaml:"limit_price" json:"limit_price"`
	// StopPrice is present on STOP orders only.
	StopPrice optional.Option[decimal.Decimal] `yaml:"stop_price" json:"stop_price"`
}

// OrderResult is the synchronous answer to an order submission attempt.
// A gate or upstream rejection uses the same shape with a REJECTED status
// and the reason filled in.
type OrderResult struct {
	OrderID int64       `yaml:"order_id" json:"order_id"`
	Symbol  string      `yaml:"symbol" json:"symbol"`
	Action  OrderAction `yaml:"action" json:"action"`
	Status  OrderStatus `yaml:"status" json:"status"`
	// Quantity echoes the submitted quantity.
	Quantity int64 `yaml:"quantity" json:"quantity"`
	// Reason carries the rejection reason. None on accepted orders.
	Reason optional.Option[string] `yaml:"reason" json:"reason"`
}

// CancelResult is the synchronous answer to a cancellation attempt.
type CancelResult struct {
	OrderID int64       `yaml:"order_id" json:"order_id"`
	Status  OrderStatus `yaml:"status" json:"status"`
	// Reason carries the gateway's cancellation message or the rejection
	// reason. None when the gateway reported nothing.
	Reason optional.Option[string] `yaml:"reason" json:"reason"`
}

// RejectedOrderResult builds the typed rejection returned by the read-only
// gate for order placements. No order id exists because nothing was sent.
func RejectedOrderResult(ticket OrderTicket, reason string) OrderResult {
	return OrderResult{
		OrderID:  0,
		Symbol:   ticket.Symbol,
		Action:   ticket.Action,
		Status:   OrderStatusRejected,
		Quantity: ticket.Quantity,
		Reason:   optional.Some(reason),
	}
}

// RejectedCancelResult builds the typed rejection returned by the read-only
// gate for cancellations.
func RejectedCancelResult(orderID int64, reason string) CancelResult {
	return CancelResult{
		OrderID: orderID,
		Status:  OrderStatusRejected,
		Reason:  optional.Some(reason),
	}
}

// Validate validates the OrderTicket struct.
func (t *OrderTicket) Validate() error {
	validate := validator.New()

	if err := validate.Struct(t); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid order ticket", err)
	}

	// Price presence follows the order type. The validator cannot inspect
	// decimal option fields, so these stay manual.
	switch t.OrderType {
	case OrderTypeLimit:
		if t.LimitPrice.IsNone() {
			return errors.New(errors.ErrCodeInvalidPrice, "limit order requires a limit price")
		}

		if !t.LimitPrice.Unwrap().IsPositive() {
			return errors.New(errors.ErrCodeInvalidPrice, "limit price must be positive")
		}
	case OrderTypeStop:
		if t.StopPrice.IsNone() {
			return errors.New(errors.ErrCodeInvalidPrice, "stop order requires a stop price")
		}

		if !t.StopPrice.Unwrap().IsPositive() {
			return errors.New(errors.ErrCodeInvalidPrice, "stop price must be positive")
		}
	case OrderTypeMarket:
		// No price fields.
	}

	return nil
}
