// Package trading holds the facade between tool calls and the brokerage.
// The facade owns argument validation and the read-only gate; everything
// else is delegated to the broker unchanged. It keeps no order book, no
// position cache, and no session state.
package trading

import (
	"context"

	"github.com/rxtech-lab/ibkr-mcp-server/internal/broker"
	"github.com/rxtech-lab/ibkr-mcp-server/internal/logger"
	"github.com/rxtech-lab/ibkr-mcp-server/internal/types"
	"github.com/rxtech-lab/ibkr-mcp-server/pkg/errors"
	"go.uber.org/zap"
)

// Facade fronts one broker. readOnly is fixed for the life of the process;
// when set, every mutating operation returns a typed rejection without the
// broker ever being called. Queries are unaffected by the gate.
type Facade struct {
	broker   broker.Broker
	readOnly bool
	logger   *logger.Logger
}

// NewFacade builds a facade over the given broker.
func NewFacade(b broker.Broker, readOnly bool, log *logger.Logger) *Facade {
	return &Facade{
		broker:   b,
		readOnly: readOnly,
		logger:   log,
	}
}

// ReadOnly reports whether the read-only gate is active.
func (f *Facade) ReadOnly() bool {
	return f.readOnly
}

// GetAccountSummary returns the account balances and value tags.
func (f *Facade) GetAccountSummary(ctx context.Context) (types.AccountSummary, error) {
	return f.broker.GetAccountSummary(ctx)
}

// GetPositions returns all currently held positions. An empty account
// yields an empty list, not an error.
func (f *Facade) GetPositions(ctx context.Context) ([]types.Position, error) {
	return f.broker.GetPositions(ctx)
}

// GetOrders returns the orders known upstream, open and terminal.
func (f *Facade) GetOrders(ctx context.Context) ([]types.OrderInfo, error) {
	return f.broker.GetOrders(ctx)
}

// GetStockPrice returns a snapshot quote for one stock.
func (f *Facade) GetStockPrice(ctx context.Context, req types.QuoteRequest) (types.StockPrice, error) {
	req.ApplyDefaults()

	if err := req.Validate(); err != nil {
		return types.StockPrice{}, err
	}

	return f.broker.GetStockPrice(ctx, req)
}

// GetHistoricalData returns OHLCV bars. Duration and bar size are passed
// through verbatim; an empty series is a valid answer.
func (f *Facade) GetHistoricalData(ctx context.Context, req types.HistoryRequest) ([]types.HistoricalBar, error) {
	req.ApplyDefaults()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return f.broker.GetHistoricalData(ctx, req)
}

// GetOptionChain returns the option contracts listed for an underlying,
// one entry per venue.
func (f *Facade) GetOptionChain(ctx context.Context, req types.OptionChainRequest) ([]types.OptionChain, error) {
	req.ApplyDefaults()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return f.broker.GetOptionChain(ctx, req)
}

// PlaceLimitOrder submits a limit order.
func (f *Facade) PlaceLimitOrder(ctx context.Context, req types.LimitOrderRequest) (types.OrderResult, error) {
	return f.submitOrder(ctx, req.Ticket())
}

// PlaceMarketOrder submits a market order.
func (f *Facade) PlaceMarketOrder(ctx context.Context, req types.MarketOrderRequest) (types.OrderResult, error) {
	return f.submitOrder(ctx, req.Ticket())
}

// PlaceStopOrder submits a stop order.
func (f *Facade) PlaceStopOrder(ctx context.Context, req types.StopOrderRequest) (types.OrderResult, error) {
	return f.submitOrder(ctx, req.Ticket())
}

// CancelOrder requests cancellation of an open order by gateway order id.
func (f *Facade) CancelOrder(ctx context.Context, orderID int64) (types.CancelResult, error) {
	if orderID <= 0 {
		return types.CancelResult{}, errors.Newf(errors.ErrCodeInvalidOrderID, "order id must be positive, got %d", orderID)
	}

	if f.readOnly {
		f.logger.Info("rejecting cancellation, read-only mode enabled", zap.Int64("order_id", orderID))

		return types.RejectedCancelResult(orderID, types.ReadOnlyRejectionReason), nil
	}

	return f.broker.CancelOrder(ctx, orderID)
}

// submitOrder runs the shared mutation path: validate first so bad
// arguments are reported as such under either gate state, then consult the
// gate, and only then let the ticket leave the process.
func (f *Facade) submitOrder(ctx context.Context, ticket types.OrderTicket) (types.OrderResult, error) {
	if err := ticket.Validate(); err != nil {
		return types.OrderResult{}, err
	}

	if f.readOnly {
		f.logger.Info("rejecting order placement, read-only mode enabled",
			zap.String("symbol", ticket.Symbol),
			zap.String("action", string(ticket.Action)),
			zap.String("order_type", string(ticket.OrderType)),
			zap.Int64("quantity", ticket.Quantity),
		)

		return types.RejectedOrderResult(ticket, types.ReadOnlyRejectionReason), nil
	}

	return f.broker.PlaceOrder(ctx, ticket)
}
