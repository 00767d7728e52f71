package mcpserver

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rxtech-lab/ibkr-mcp-server/internal/types"
)

// toolHandlerFunc is the internal handler shape: raw JSON arguments in,
// finished tool result out. Handlers never return protocol errors; every
// failure is rendered as an error payload so clients always get the same
// shape.
type toolHandlerFunc func(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error)

// toolDef pairs one exposed tool with its handler.
type toolDef struct {
	tool    *mcp.Tool
	handler toolHandlerFunc
}

// toolDefs is the complete operation table, one entry per exposed tool.
// Dispatch is this table and nothing else; adding a tool means adding an
// entry here.
func (s *Server) toolDefs() []toolDef {
	return []toolDef{
		{
			tool: &mcp.Tool{
				Name:        "get_account_summary",
				Description: "Get account summary including cash balance and net liquidation value",
				InputSchema: objectSchema(nil),
			},
			handler: s.handleGetAccountSummary,
		},
		{
			tool: &mcp.Tool{
				Name:        "get_positions",
				Description: "Get all current positions in the account",
				InputSchema: objectSchema(nil),
			},
			handler: s.handleGetPositions,
		},
		{
			tool: &mcp.Tool{
				Name:        "get_orders",
				Description: "Get all orders (open and filled)",
				InputSchema: objectSchema(nil),
			},
			handler: s.handleGetOrders,
		},
		{
			tool: &mcp.Tool{
				Name:        "get_stock_price",
				Description: "Get real-time stock price",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"symbol":   stringProp("Stock symbol (e.g., AAPL, TSLA)"),
					"exchange": stringPropWithDefault("Exchange (default: SMART)", types.DefaultExchange),
				}, "symbol"),
			},
			handler: s.handleGetStockPrice,
		},
		{
			tool: &mcp.Tool{
				Name:        "get_historical_data",
				Description: "Get historical stock data",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"symbol":   stringProp("Stock symbol"),
					"duration": stringPropWithDefault("Duration (e.g., '1 D', '1 W', '1 M')", types.DefaultDuration),
					"bar_size": stringPropWithDefault("Bar size (e.g., '1 min', '1 hour', '1 day')", types.DefaultBarSize),
					"exchange": stringPropWithDefault("Exchange (default: SMART)", types.DefaultExchange),
				}, "symbol"),
			},
			handler: s.handleGetHistoricalData,
		},
		{
			tool: &mcp.Tool{
				Name:        "get_option_chain",
				Description: "Get option chain for a stock",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"symbol":   stringProp("Stock symbol"),
					"exchange": stringPropWithDefault("Exchange (default: SMART)", types.DefaultExchange),
				}, "symbol"),
			},
			handler: s.handleGetOptionChain,
		},
		{
			tool: &mcp.Tool{
				Name:        "place_limit_order",
				Description: "Place a limit order",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"symbol":      stringProp("Stock symbol"),
					"action":      actionProp(),
					"quantity":    integerProp("Number of shares"),
					"limit_price": numberProp("Limit price"),
					"exchange":    stringPropWithDefault("Exchange (default: SMART)", types.DefaultExchange),
				}, "symbol", "action", "quantity", "limit_price"),
			},
			handler: s.handlePlaceLimitOrder,
		},
		{
			tool: &mcp.Tool{
				Name:        "place_market_order",
				Description: "Place a market order",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"symbol":   stringProp("Stock symbol"),
					"action":   actionProp(),
					"quantity": integerProp("Number of shares"),
					"exchange": stringPropWithDefault("Exchange (default: SMART)", types.DefaultExchange),
				}, "symbol", "action", "quantity"),
			},
			handler: s.handlePlaceMarketOrder,
		},
		{
			tool: &mcp.Tool{
				Name:        "place_stop_order",
				Description: "Place a stop (stop-loss) order",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"symbol":     stringProp("Stock symbol"),
					"action":     actionProp(),
					"quantity":   integerProp("Number of shares"),
					"stop_price": numberProp("Stop price"),
					"exchange":   stringPropWithDefault("Exchange (default: SMART)", types.DefaultExchange),
				}, "symbol", "action", "quantity", "stop_price"),
			},
			handler: s.handlePlaceStopOrder,
		},
		{
			tool: &mcp.Tool{
				Name:        "cancel_order",
				Description: "Cancel an open order by order id",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"order_id": integerProp("Gateway order id, as returned by place or get_orders"),
				}, "order_id"),
			},
			handler: s.handleCancelOrder,
		},
	}
}

// Schema builders. Tool schemas are written out by hand; reflection would
// tie the wire contract to struct layout.

func objectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	if properties == nil {
		properties = map[string]*jsonschema.Schema{}
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func stringProp(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func stringPropWithDefault(description string, value string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: description,
		Default:     json.RawMessage(strconv.Quote(value)),
	}
}

func integerProp(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: description}
}

func numberProp(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number", Description: description}
}

func actionProp() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "BUY or SELL",
		Enum:        []any{"BUY", "SELL"},
	}
}

// Handlers

func (s *Server) handleGetAccountSummary(ctx context.Context, _ json.RawMessage) (*mcp.CallToolResult, error) {
	summary, err := s.facade.GetAccountSummary(ctx)
	if err != nil {
		return s.toolError("get_account_summary", err), nil
	}

	return successResult(summary), nil
}

func (s *Server) handleGetPositions(ctx context.Context, _ json.RawMessage) (*mcp.CallToolResult, error) {
	positions, err := s.facade.GetPositions(ctx)
	if err != nil {
		return s.toolError("get_positions", err), nil
	}

	return successResult(positions), nil
}

func (s *Server) handleGetOrders(ctx context.Context, _ json.RawMessage) (*mcp.CallToolResult, error) {
	orders, err := s.facade.GetOrders(ctx)
	if err != nil {
		return s.toolError("get_orders", err), nil
	}

	return successResult(orders), nil
}

func (s *Server) handleGetStockPrice(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error) {
	var req types.QuoteRequest
	if err := unmarshalArgs(args, &req); err != nil {
		return s.toolError("get_stock_price", err), nil
	}

	price, err := s.facade.GetStockPrice(ctx, req)
	if err != nil {
		return s.toolError("get_stock_price", err), nil
	}

	return successResult(price), nil
}

func (s *Server) handleGetHistoricalData(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error) {
	var req types.HistoryRequest
	if err := unmarshalArgs(args, &req); err != nil {
		return s.toolError("get_historical_data", err), nil
	}

	bars, err := s.facade.GetHistoricalData(ctx, req)
	if err != nil {
		return s.toolError("get_historical_data", err), nil
	}

	return successResult(bars), nil
}

func (s *Server) handleGetOptionChain(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error) {
	var req types.OptionChainRequest
	if err := unmarshalArgs(args, &req); err != nil {
		return s.toolError("get_option_chain", err), nil
	}

	chains, err := s.facade.GetOptionChain(ctx, req)
	if err != nil {
		return s.toolError("get_option_chain", err), nil
	}

	return successResult(chains), nil
}

func (s *Server) handlePlaceLimitOrder(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error) {
	var req types.LimitOrderRequest
	if err := unmarshalArgs(args, &req); err != nil {
		return s.toolError("place_limit_order", err), nil
	}

	result, err := s.facade.PlaceLimitOrder(ctx, req)
	if err != nil {
		return s.toolError("place_limit_order", err), nil
	}

	return successResult(result), nil
}

func (s *Server) handlePlaceMarketOrder(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error) {
	var req types.MarketOrderRequest
	if err := unmarshalArgs(args, &req); err != nil {
		return s.toolError("place_market_order", err), nil
	}

	result, err := s.facade.PlaceMarketOrder(ctx, req)
	if err != nil {
		return s.toolError("place_market_order", err), nil
	}

	return successResult(result), nil
}

func (s *Server) handlePlaceStopOrder(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error) {
	var req types.StopOrderRequest
	if err := unmarshalArgs(args, &req); err != nil {
		return s.toolError("place_stop_order", err), nil
	}

	result, err := s.facade.PlaceStopOrder(ctx, req)
	if err != nil {
		return s.toolError("place_stop_order", err), nil
	}

	return successResult(result), nil
}

type cancelOrderArgs struct {
	OrderID int64 `json:"order_id"`
}

func (s *Server) handleCancelOrder(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error) {
	var req cancelOrderArgs
	if err := unmarshalArgs(args, &req); err != nil {
		return s.toolError("cancel_order", err), nil
	}

	result, err := s.facade.CancelOrder(ctx, req.OrderID)
	if err != nil {
		return s.toolError("cancel_order", err), nil
	}

	return successResult(result), nil
}
