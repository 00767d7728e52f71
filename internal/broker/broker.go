// Package broker defines the brokerage surface the trading facade delegates
// to. Implementations talk to an IB gateway; tests substitute a mock.
package broker

import (
	"context"

	"github.com/rxtech-lab/ibkr-mcp-server/internal/types"
)

type Broker interface {
	// GetAccountSummary returns the account balances and value tags
	GetAccountSummary(ctx context.Context) (types.AccountSummary, error)
	// GetPositions returns all currently held positions
	GetPositions(ctx context.Context) ([]types.Position, error)
	// GetOrders returns the orders known to the gateway, open and terminal
	GetOrders(ctx context.Context) ([]types.OrderInfo, error)
	// GetStockPrice returns a snapshot quote for one stock
	GetStockPrice(ctx context.Context, req types.QuoteRequest) (types.StockPrice, error)
	// GetHistoricalData returns OHLCV bars in the gateway's order
	GetHistoricalData(ctx context.Context, req types.HistoryRequest) ([]types.HistoricalBar, error)
	// GetOptionChain returns the listed option contracts per venue
	GetOptionChain(ctx context.Context, req types.OptionChainRequest) ([]types.OptionChain, error)
	// PlaceOrder submits one order ticket and returns the synchronous outcome.
	// An order the gateway itself refuses comes back as a REJECTED result,
	// not an error.
	PlaceOrder(ctx context.Context, ticket types.OrderTicket) (types.OrderResult, error)
	// CancelOrder requests cancellation of an open order by gateway order id
	CancelOrder(ctx context.Context, orderID int64) (types.CancelResult, error)
}
