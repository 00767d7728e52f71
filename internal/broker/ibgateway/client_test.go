package ibgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rxtech-lab/ibkr-mcp-server/internal/logger"
	"github.com/rxtech-lab/ibkr-mcp-server/internal/types"
	"github.com/rxtech-lab/ibkr-mcp-server/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type GatewayClientTestSuite struct {
	suite.Suite
}

func TestGatewayClientSuite(t *testing.T) {
	suite.Run(t, new(GatewayClientTestSuite))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeGatewayError(w http.ResponseWriter, status int, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message, "code": code})
}

// newRouter returns a router preloaded with account discovery and symbol
// qualification for AAPL; tests add the routes they exercise.
func (suite *GatewayClientTestSuite) newRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/v1/api/iserver/accounts", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"accounts": []string{"DU1234567"}, "selectedAccount": "DU1234567"})
	}).Methods(http.MethodGet)

	router.HandleFunc("/v1/api/iserver/secdef/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "AAPL" {
			writeJSON(w, []map[string]any{{"conid": "265598", "symbol": "AAPL", "instrumentType": "STK"}})

			return
		}

		writeJSON(w, []map[string]any{})
	}).Methods(http.MethodGet)

	return router
}

func (suite *GatewayClientTestSuite) newClient(server *httptest.Server, mutate ...func(*Config)) *Client {
	config := Config{
		BaseURL:  server.URL,
		ClientID: 7,
		Timeout:  5 * time.Second,
	}

	for _, m := range mutate {
		m(&config)
	}

	client, err := NewClient(config, logger.NewNopLogger())
	suite.Require().NoError(err)

	return client
}

func (suite *GatewayClientTestSuite) TestNewClient_RequiresEndpoint() {
	_, err := NewClient(Config{}, logger.NewNopLogger())
	suite.Error(err)
	suite.Contains(err.Error(), "invalid gateway config")
}

func (suite *GatewayClientTestSuite) TestNewClient_HostPort() {
	client, err := NewClient(Config{Host: "ib-gateway", Port: 4002}, logger.NewNopLogger())
	suite.NoError(err)
	suite.Equal("http://ib-gateway:4002", client.baseURL)
}

func (suite *GatewayClientTestSuite) TestGetAccountSummary() {
	router := suite.newRouter()
	router.HandleFunc("/v1/api/portfolio/{account}/summary", func(w http.ResponseWriter, r *http.Request) {
		suite.Equal("DU1234567", mux.Vars(r)["account"])
		writeJSON(w, map[string]any{
			"netliquidation":     map[string]any{"amount": 125000.50, "currency": "USD"},
			"cashbalance":        map[string]any{"amount": 50000.0, "currency": "USD"},
			"totalcashvalue":     map[string]any{"amount": 51000.0, "currency": "USD"},
			"buyingpower":        map[string]any{"amount": 200000.0, "currency": "USD"},
			"grosspositionvalue": map[string]any{"amount": 75000.25, "currency": "USD"},
		})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	summary, err := client.GetAccountSummary(context.Background())
	suite.Require().NoError(err)
	suite.Equal("DU1234567", summary.AccountID)
	suite.Equal("USD", summary.Currency)
	suite.Equal("125000.5", summary.NetLiquidation.String())
	suite.Equal("50000", summary.CashBalance.String())
	suite.Equal("51000", summary.TotalCashValue.String())
	suite.Equal("200000", summary.BuyingPower.String())
	suite.Equal("75000.25", summary.GrossPositionValue.String())
}

func (suite *GatewayClientTestSuite) TestAccountDiscovery_CachedAfterFirstUse() {
	var discoveries atomic.Int64

	router := mux.NewRouter()
	router.HandleFunc("/v1/api/iserver/accounts", func(w http.ResponseWriter, _ *http.Request) {
		discoveries.Add(1)
		writeJSON(w, map[string]any{"accounts": []string{"DU1234567"}})
	}).Methods(http.MethodGet)
	router.HandleFunc("/v1/api/portfolio/{account}/summary", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	_, err := client.GetAccountSummary(context.Background())
	suite.Require().NoError(err)
	_, err = client.GetAccountSummary(context.Background())
	suite.Require().NoError(err)

	suite.Equal(int64(1), discoveries.Load())
}

func (suite *GatewayClientTestSuite) TestAccountDiscovery_ConfigOverrideWins() {
	var discoveries atomic.Int64

	router := mux.NewRouter()
	router.HandleFunc("/v1/api/iserver/accounts", func(w http.ResponseWriter, _ *http.Request) {
		discoveries.Add(1)
		writeJSON(w, map[string]any{"accounts": []string{"DU1234567"}})
	}).Methods(http.MethodGet)
	router.HandleFunc("/v1/api/portfolio/{account}/summary", func(w http.ResponseWriter, r *http.Request) {
		suite.Equal("DU7654321", mux.Vars(r)["account"])
		writeJSON(w, map[string]any{})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server, func(c *Config) { c.AccountID = "DU7654321" })

	_, err := client.GetAccountSummary(context.Background())
	suite.Require().NoError(err)
	suite.Equal(int64(0), discoveries.Load())
}

func (suite *GatewayClientTestSuite) TestGetPositions_Paging() {
	router := suite.newRouter()
	router.HandleFunc("/v1/api/portfolio/{account}/positions/{page}", func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(mux.Vars(r)["page"])
		suite.Require().NoError(err)

		if page == 0 {
			batch := make([]map[string]any, positionsPageSize)
			for i := range batch {
				batch[i] = map[string]any{
					"acctId":     "DU1234567",
					"ticker":     fmt.Sprintf("SYM%d", i),
					"assetClass": "STK",
					"position":   10.0,
				}
			}
			writeJSON(w, batch)

			return
		}

		writeJSON(w, []map[string]any{{
			"acctId":        "DU1234567",
			"ticker":        "AAPL",
			"assetClass":    "STK",
			"position":      -25.0,
			"avgCost":       150.25,
			"mktPrice":      189.5,
			"mktValue":      -4737.5,
			"unrealizedPnl": -981.25,
			"realizedPnl":   12.5,
		}})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	positions, err := client.GetPositions(context.Background())
	suite.Require().NoError(err)
	suite.Len(positions, positionsPageSize+1)

	last := positions[len(positions)-1]
	suite.Equal("AAPL", last.Symbol)
	suite.Equal("STK", last.SecType)
	suite.Equal("-25", last.Quantity.String())
	suite.Equal("150.25", last.AvgCost.String())
	suite.Equal("-981.25", last.UnrealizedPnL.String())
}

func (suite *GatewayClientTestSuite) TestGetPositions_Empty() {
	router := suite.newRouter()
	router.HandleFunc("/v1/api/portfolio/{account}/positions/{page}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []map[string]any{})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	positions, err := client.GetPositions(context.Background())
	suite.Require().NoError(err)
	suite.NotNil(positions)
	suite.Empty(positions)
}

func (suite *GatewayClientTestSuite) TestGetOrders() {
	router := suite.newRouter()
	router.HandleFunc("/v1/api/iserver/account/orders", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"orders": []map[string]any{
			{
				"orderId":           1001,
				"ticker":            "AAPL",
				"side":              "BUY",
				"orderType":         "Limit",
				"price":             185.5,
				"totalSize":         100.0,
				"filledQuantity":    40.0,
				"remainingQuantity": 60.0,
				"avgPrice":          185.4,
				"status":            "Submitted",
			},
			{
				"orderId":   1002,
				"ticker":    "MSFT",
				"side":      "SELL",
				"orderType": "Market",
				"totalSize": 10.0,
				"status":    "Filled",
			},
			{
				"orderId":   1003,
				"ticker":    "TSLA",
				"side":      "SELL",
				"orderType": "Stop",
				"auxPrice":  240.0,
				"totalSize": 5.0,
				"status":    "PreSubmitted",
			},
		}})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	orders, err := client.GetOrders(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(orders, 3)

	suite.Equal(int64(1001), orders[0].OrderID)
	suite.Equal(types.OrderActionBuy, orders[0].Action)
	suite.Equal(types.OrderTypeLimit, orders[0].OrderType)
	suite.Equal(types.OrderStatusSubmitted, orders[0].Status)
	suite.True(orders[0].LimitPrice.IsSome())
	suite.Equal("185.5", orders[0].LimitPrice.Unwrap().String())
	suite.Equal("60", orders[0].RemainingQuantity.String())

	suite.Equal(types.OrderTypeMarket, orders[1].OrderType)
	suite.Equal(types.OrderStatusFilled, orders[1].Status)
	suite.True(orders[1].LimitPrice.IsNone())

	suite.Equal(types.OrderTypeStop, orders[2].OrderType)
	suite.Equal(types.OrderStatusPending, orders[2].Status)
	suite.True(orders[2].StopPrice.IsSome())
	suite.Equal("240", orders[2].StopPrice.Unwrap().String())
}

func (suite *GatewayClientTestSuite) TestGetStockPrice() {
	router := suite.newRouter()
	router.HandleFunc("/v1/api/iserver/marketdata/snapshot", func(w http.ResponseWriter, r *http.Request) {
		suite.Equal("265598", r.URL.Query().Get("conids"))
		writeJSON(w, []map[string]any{{
			"conid": 265598,
			"31":    "189.84",
			"84":    "189.80",
			"86":    "189.86",
			"87":    "54321",
			"7741":  "188.90",
		}})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	price, err := client.GetStockPrice(context.Background(), types.QuoteRequest{Symbol: "AAPL", Exchange: "SMART"})
	suite.Require().NoError(err)
	suite.Equal("AAPL", price.Symbol)
	suite.Equal("SMART", price.Exchange)
	suite.Equal("189.84", price.Last.String())
	suite.Equal("189.8", price.Bid.String())
	suite.Equal("189.86", price.Ask.String())
	suite.Equal("188.9", price.Close.String())
	suite.Equal(int64(54321), price.Volume)
	suite.WithinDuration(time.Now().UTC(), price.Timestamp, time.Minute)
}

func (suite *GatewayClientTestSuite) TestGetStockPrice_PrimesColdSnapshot() {
	var calls atomic.Int64

	router := suite.newRouter()
	router.HandleFunc("/v1/api/iserver/marketdata/snapshot", func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			// Not yet subscribed: conid only, no price fields.
			writeJSON(w, []map[string]any{{"conid": 265598}})

			return
		}

		writeJSON(w, []map[string]any{{"conid": 265598, "31": "189.84"}})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	price, err := client.GetStockPrice(context.Background(), types.QuoteRequest{Symbol: "AAPL", Exchange: "SMART"})
	suite.Require().NoError(err)
	suite.Equal("189.84", price.Last.String())
	suite.Equal(int64(2), calls.Load())
}

func (suite *GatewayClientTestSuite) TestGetStockPrice_NoMarketData() {
	var calls atomic.Int64

	router := suite.newRouter()
	router.HandleFunc("/v1/api/iserver/marketdata/snapshot", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, []map[string]any{{"conid": 265598}})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	_, err := client.GetStockPrice(context.Background(), types.QuoteRequest{Symbol: "AAPL", Exchange: "SMART"})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoMarketData))
	suite.Equal(errors.KindMarketDataUnavailable, errors.KindOf(err))
	// One retry, then give up.
	suite.Equal(int64(2), calls.Load())
}

func (suite *GatewayClientTestSuite) TestGetStockPrice_NoEntitlement() {
	router := suite.newRouter()
	router.HandleFunc("/v1/api/iserver/marketdata/snapshot", func(w http.ResponseWriter, _ *http.Request) {
		writeGatewayError(w, http.StatusBadRequest, "requested market data is not subscribed", 354)
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	_, err := client.GetStockPrice(context.Background(), types.QuoteRequest{Symbol: "AAPL", Exchange: "SMART"})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoEntitlement))
	suite.Equal(errors.KindMarketDataUnavailable, errors.KindOf(err))
}

func (suite *GatewayClientTestSuite) TestGetStockPrice_UnknownSymbol() {
	server := httptest.NewServer(suite.newRouter())
	defer server.Close()

	client := suite.newClient(server)

	_, err := client.GetStockPrice(context.Background(), types.QuoteRequest{Symbol: "NOPE", Exchange: "SMART"})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeContractNotFound))
	suite.Equal(errors.KindUpstreamRejected, errors.KindOf(err))
}

func (suite *GatewayClientTestSuite) TestGetHistoricalData() {
	router := suite.newRouter()
	router.HandleFunc("/v1/api/iserver/marketdata/history", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		suite.Equal("265598", query.Get("conid"))
		suite.Equal("1 D", query.Get("period"))
		suite.Equal("1 hour", query.Get("bar"))
		suite.Equal("false", query.Get("outsideRth"))
		suite.Equal("trades", query.Get("source"))

		writeJSON(w, map[string]any{
			"symbol": "AAPL",
			"data": []map[string]any{
				{"t": 1755772200000, "o": 189.1, "h": 190.0, "l": 188.8, "c": 189.5, "v": 120345},
				{"t": 1755775800000, "o": 189.5, "h": 189.9, "l": 189.2, "c": 189.7, "v": 98221},
				{"t": 1755779400000, "o": 189.7, "h": 190.4, "l": 189.6, "c": 190.2, "v": 87410},
			},
			"points": 3,
		})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	req := types.HistoryRequest{Symbol: "AAPL", Duration: "1 D", BarSize: "1 hour", Exchange: "SMART"}

	bars, err := client.GetHistoricalData(context.Background(), req)
	suite.Require().NoError(err)
	suite.Require().Len(bars, 3)
	suite.Equal(time.UnixMilli(1755772200000).UTC(), bars[0].Date)
	suite.Equal("189.1", bars[0].Open.String())
	suite.Equal("190.2", bars[2].Close.String())
	suite.Equal(int64(120345), bars[0].Volume)
	// Gateway order is preserved.
	suite.True(bars[0].Date.Before(bars[1].Date))
}

func (suite *GatewayClientTestSuite) TestGetOptionChain() {
	router := suite.newRouter()
	router.HandleFunc("/v1/api/iserver/secdef/opt-params", func(w http.ResponseWriter, r *http.Request) {
		suite.Equal("AAPL", r.URL.Query().Get("symbol"))
		suite.Equal("265598", r.URL.Query().Get("conid"))

		writeJSON(w, []map[string]any{{
			"exchange":    "SMART",
			"strikes":     []float64{190.0, 180.0, 185.0},
			"expirations": []string{"20260220", "20260116"},
			"multiplier":  "100",
		}})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	chains, err := client.GetOptionChain(context.Background(), types.OptionChainRequest{Symbol: "AAPL", Exchange: "SMART"})
	suite.Require().NoError(err)
	suite.Require().Len(chains, 1)
	suite.Equal("SMART", chains[0].Exchange)
	suite.Equal([]string{"20260116", "20260220"}, chains[0].Expirations)
	suite.Equal([]int64{100}, chains[0].Multipliers)

	strikes := make([]string, 0, len(chains[0].Strikes))
	for _, strike := range chains[0].Strikes {
		strikes = append(strikes, strike.String())
	}

	suite.Equal([]string{"180", "185", "190"}, strikes)
}

func (suite *GatewayClientTestSuite) TestPlaceOrder() {
	var captured ordersRequestDTO

	router := suite.newRouter()
	router.HandleFunc("/v1/api/iserver/account/{account}/orders", func(w http.ResponseWriter, r *http.Request) {
		suite.Equal("DU1234567", mux.Vars(r)["account"])
		suite.Require().NoError(json.NewDecoder(r.Body).Decode(&captured))
		writeJSON(w, []map[string]any{{"order_id": "1234567", "order_status": "Submitted"}})
	}).Methods(http.MethodPost)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	ticket := types.LimitOrderRequest{
		Symbol:     "AAPL",
		Action:     types.OrderActionBuy,
		Quantity:   100,
		LimitPrice: decimal.NewFromFloat(185.50),
	}.Ticket()

	result, err := client.PlaceOrder(context.Background(), ticket)
	suite.Require().NoError(err)
	suite.Equal(int64(1234567), result.OrderID)
	suite.Equal(types.OrderStatusSubmitted, result.Status)
	suite.Equal(int64(100), result.Quantity)
	suite.True(result.Reason.IsNone())

	suite.Require().Len(captured.Orders, 1)
	sent := captured.Orders[0]
	suite.Equal("DU1234567", sent.AccountID)
	suite.Equal(int64(265598), sent.ConID)
	suite.Equal("LMT", sent.OrderType)
	suite.Equal("BUY", sent.Side)
	suite.Equal(int64(100), sent.Quantity)
	suite.InDelta(185.50, sent.Price, 0.0001)
	suite.Equal("GTC", sent.TIF)

	_, err = uuid.Parse(sent.ClientOrderID)
	suite.NoError(err)
}

func (suite *GatewayClientTestSuite) TestPlaceOrder_MarketOrderShape() {
	var captured ordersRequestDTO

	router := suite.newRouter()
	router.HandleFunc("/v1/api/iserver/account/{account}/orders", func(w http.ResponseWriter, r *http.Request) {
		suite.Require().NoError(json.NewDecoder(r.Body).Decode(&captured))
		writeJSON(w, []map[string]any{{"order_id": "42", "order_status": "Filled"}})
	}).Methods(http.MethodPost)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	ticket := types.MarketOrderRequest{Symbol: "AAPL", Action: types.OrderActionSell, Quantity: 10}.Ticket()

	result, err := client.PlaceOrder(context.Background(), ticket)
	suite.Require().NoError(err)
	suite.Equal(types.OrderStatusFilled, result.Status)

	suite.Require().Len(captured.Orders, 1)
	suite.Equal("MKT", captured.Orders[0].OrderType)
	suite.Equal("DAY", captured.Orders[0].TIF)
	suite.Zero(captured.Orders[0].Price)
}

func (suite *GatewayClientTestSuite) TestPlaceOrder_RejectedInBand() {
	router := suite.newRouter()
	router.HandleFunc("/v1/api/iserver/account/{account}/orders", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []map[string]any{{"order_status": "Rejected", "text": "insufficient buying power"}})
	}).Methods(http.MethodPost)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	ticket := types.MarketOrderRequest{Symbol: "AAPL", Action: types.OrderActionBuy, Quantity: 1000000}.Ticket()

	result, err := client.PlaceOrder(context.Background(), ticket)
	suite.Require().NoError(err)
	suite.Equal(types.OrderStatusRejected, result.Status)
	suite.True(result.Reason.IsSome())
	suite.Equal("insufficient buying power", result.Reason.Unwrap())
	suite.Zero(result.OrderID)
}

func (suite *GatewayClientTestSuite) TestPlaceOrder_GatewayRefuses() {
	router := suite.newRouter()
	router.HandleFunc("/v1/api/iserver/account/{account}/orders", func(w http.ResponseWriter, _ *http.Request) {
		writeGatewayError(w, http.StatusBadRequest, "order rejected: no trading permission", 0)
	}).Methods(http.MethodPost)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	ticket := types.MarketOrderRequest{Symbol: "AAPL", Action: types.OrderActionBuy, Quantity: 1}.Ticket()

	_, err := client.PlaceOrder(context.Background(), ticket)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeOrderRejected))
	suite.Equal(errors.KindUpstreamRejected, errors.KindOf(err))
}

func (suite *GatewayClientTestSuite) TestCancelOrder() {
	router := suite.newRouter()
	router.HandleFunc("/v1/api/iserver/account/{account}/order/{orderID}", func(w http.ResponseWriter, r *http.Request) {
		suite.Equal("1234567", mux.Vars(r)["orderID"])
		writeJSON(w, map[string]any{"order_id": 1234567, "msg": "Request was submitted"})
	}).Methods(http.MethodDelete)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	result, err := client.CancelOrder(context.Background(), 1234567)
	suite.Require().NoError(err)
	suite.Equal(int64(1234567), result.OrderID)
	suite.Equal(types.OrderStatusCancelled, result.Status)
	suite.True(result.Reason.IsSome())
	suite.Equal("Request was submitted", result.Reason.Unwrap())
}

func (suite *GatewayClientTestSuite) TestCancelOrder_UnknownOrder() {
	router := suite.newRouter()
	router.HandleFunc("/v1/api/iserver/account/{account}/order/{orderID}", func(w http.ResponseWriter, _ *http.Request) {
		writeGatewayError(w, http.StatusBadRequest, "order not found", 0)
	}).Methods(http.MethodDelete)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	_, err := client.CancelOrder(context.Background(), 99)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeOrderNotFound))
	suite.Equal(errors.KindUpstreamRejected, errors.KindOf(err))
}

func (suite *GatewayClientTestSuite) TestGatewayDown() {
	server := httptest.NewServer(suite.newRouter())
	server.Close()

	client := suite.newClient(server)

	_, err := client.GetAccountSummary(context.Background())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeConnectionFailed))
	suite.Equal(errors.KindUpstreamUnavailable, errors.KindOf(err))
}

func (suite *GatewayClientTestSuite) TestGatewayNotAuthenticated() {
	router := mux.NewRouter()
	router.HandleFunc("/v1/api/iserver/accounts", func(w http.ResponseWriter, _ *http.Request) {
		writeGatewayError(w, http.StatusUnauthorized, "not authenticated", 0)
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	err := client.CheckConnection(context.Background())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeGatewayNotReady))
	suite.Equal(errors.KindUpstreamUnavailable, errors.KindOf(err))
}

func (suite *GatewayClientTestSuite) TestCheckConnection() {
	server := httptest.NewServer(suite.newRouter())
	defer server.Close()

	client := suite.newClient(server)
	suite.NoError(client.CheckConnection(context.Background()))
}

func (suite *GatewayClientTestSuite) TestCheckConnection_NoAccounts() {
	router := mux.NewRouter()
	router.HandleFunc("/v1/api/iserver/accounts", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"accounts": []string{}})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server)

	err := client.CheckConnection(context.Background())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeGatewayNotReady))
}

func (suite *GatewayClientTestSuite) TestRequestCarriesAuthAndClientID() {
	router := suite.newRouter()
	router.HandleFunc("/v1/api/iserver/account/orders", func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		suite.True(ok)
		suite.Equal("paper-user", username)
		suite.Equal("paper-pass", password)
		suite.Equal("7", r.Header.Get(clientIDHeader))
		writeJSON(w, map[string]any{"orders": []map[string]any{}})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client := suite.newClient(server, func(c *Config) {
		c.Username = "paper-user"
		c.Password = "paper-pass"
	})

	orders, err := client.GetOrders(context.Background())
	suite.Require().NoError(err)
	suite.Empty(orders)
}

func (suite *GatewayClientTestSuite) TestMapGatewayOrderStatus() {
	cases := map[string]types.OrderStatus{
		"PendingSubmit": types.OrderStatusPending,
		"PreSubmitted":  types.OrderStatusPending,
		"PendingCancel": types.OrderStatusPending,
		"Submitted":     types.OrderStatusSubmitted,
		"Filled":        types.OrderStatusFilled,
		"Cancelled":     types.OrderStatusCancelled,
		"Rejected":      types.OrderStatusRejected,
		"Inactive":      types.OrderStatusInactive,
		"WarnState":     types.OrderStatusInactive,
	}

	for input, want := range cases {
		suite.Equal(want, mapGatewayOrderStatus(input), "status %q", input)
	}
}

func (suite *GatewayClientTestSuite) TestMapGatewayOrderType() {
	suite.Equal(types.OrderTypeLimit, mapGatewayOrderType("Limit"))
	suite.Equal(types.OrderTypeLimit, mapGatewayOrderType("LMT"))
	suite.Equal(types.OrderTypeStop, mapGatewayOrderType("STP"))
	suite.Equal(types.OrderTypeMarket, mapGatewayOrderType("Market"))
	suite.Equal(types.OrderType("MIDPRICE"), mapGatewayOrderType("MidPrice"))
}
