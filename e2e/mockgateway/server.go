// Package mockgateway provides a fake IB gateway REST bridge for testing.
// It mimics the Client Portal API's quirks: string conids in contract
// search, numbered snapshot fields, snapshot warm-up on first request, and
// paged positions.
package mockgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/ibkr-mcp-server/mocks"
)

// Quote is the live quote state for one symbol.
type Quote struct {
	Last       float64
	Bid        float64
	Ask        float64
	Volume     int64
	PriorClose float64
}

// Position is one position row served by the portfolio endpoints.
type Position struct {
	ConID         int64   `json:"conid"`
	Ticker        string  `json:"ticker"`
	ContractDesc  string  `json:"contractDesc"`
	AssetClass    string  `json:"assetClass"`
	Position      float64 `json:"position"`
	AvgCost       float64 `json:"avgCost"`
	MarketPrice   float64 `json:"mktPrice"`
	MarketValue   float64 `json:"mktValue"`
	UnrealizedPnL float64 `json:"unrealizedPnl"`
	RealizedPnL   float64 `json:"realizedPnl"`
	Currency      string  `json:"currency"`
}

// OptionVenue is one venue's option listing for an underlying.
type OptionVenue struct {
	Exchange    string    `json:"exchange"`
	Strikes     []float64 `json:"strikes"`
	Expirations []string  `json:"expirations"`
	Multiplier  string    `json:"multiplier"`
}

// Order is one order on the fake book.
type Order struct {
	OrderID       int64
	ConID         int64
	Ticker        string
	Side          string
	OrderType     string
	Price         float64
	AuxPrice      float64
	Quantity      int64
	TIF           string
	ClientOrderID string
	Status        string
}

// summaryTag is one tag value of the account summary.
type summaryTag struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// positionsPageSize mirrors the gateway's portfolio paging.
const positionsPageSize = 100

// ServerConfig holds configuration for the mock gateway.
type ServerConfig struct {
	// AccountID is the brokerage account the gateway reports.
	AccountID string
	// HistorySeed seeds the deterministic bar generator.
	HistorySeed int64
	// HistoryBars is the number of bars served per history request.
	HistoryBars int
}

// MockGatewayServer is a fake IB gateway REST bridge.
type MockGatewayServer struct {
	mu sync.RWMutex

	httpServer *http.Server
	listener   net.Listener

	accountID      string
	summary        map[string]summaryTag
	positions      []Position
	contracts      map[string]int64
	symbolsByConID map[int64]string
	quotes         map[string]Quote
	optionVenues   map[string][]OptionVenue
	deniedSymbols  map[string]int

	orders       map[int64]*Order
	orderIDSeq   int64
	rejectReason string

	unauthorized bool

	warmedConIDs    map[int64]bool
	snapshotWarmups int
	requestCounts   map[string]int

	historySeed int64
	historyBars int
}

// NewMockGatewayServer creates a mock gateway preloaded with one account,
// two stock contracts, quotes, positions, and an option listing.
func NewMockGatewayServer(config ServerConfig) *MockGatewayServer {
	if config.AccountID == "" {
		config.AccountID = "DU1234567"
	}

	if config.HistoryBars == 0 {
		config.HistoryBars = 8
	}

	if config.HistorySeed == 0 {
		config.HistorySeed = 42
	}

	server := &MockGatewayServer{
		accountID: config.AccountID,
		summary: map[string]summaryTag{
			"netliquidation":     {Amount: 125000.50, Currency: "USD"},
			"cashbalance":        {Amount: 25000.25, Currency: "USD"},
			"totalcashvalue":     {Amount: 25000.25, Currency: "USD"},
			"buyingpower":        {Amount: 100000.00, Currency: "USD"},
			"grosspositionvalue": {Amount: 99999.75, Currency: "USD"},
			// Tags the server does not map, present on the real gateway.
			"equitywithloanvalue": {Amount: 124000.00, Currency: "USD"},
			"availablefunds":     {Amount: 80000.00, Currency: "USD"},
		},
		positions: []Position{
			{
				ConID:         265598,
				Ticker:        "AAPL",
				ContractDesc:  "APPLE INC",
				AssetClass:    "STK",
				Position:      100,
				AvgCost:       150.25,
				MarketPrice:   189.84,
				MarketValue:   18984.00,
				UnrealizedPnL: 3959.00,
				RealizedPnL:   0,
				Currency:      "USD",
			},
		},
		contracts: map[string]int64{
			"AAPL": 265598,
			"TSLA": 76792991,
		},
		symbolsByConID: map[int64]string{},
		quotes: map[string]Quote{
			"AAPL": {Last: 189.84, Bid: 189.80, Ask: 189.86, Volume: 54321, PriorClose: 188.90},
			"TSLA": {Last: 242.10, Bid: 242.05, Ask: 242.18, Volume: 98765, PriorClose: 240.00},
		},
		optionVenues: map[string][]OptionVenue{
			"AAPL": {
				{
					Exchange: "SMART",
					// Unsorted on purpose; the real gateway makes no
					// ordering promise.
					Strikes:     []float64{190, 180, 185},
					Expirations: []string{"20260417", "20260320"},
					Multiplier:  "100",
				},
				{
					Exchange:    "CBOE",
					Strikes:     []float64{180, 185},
					Expirations: []string{"20260320"},
					Multiplier:  "100",
				},
			},
		},
		deniedSymbols: map[string]int{},
		orders:        map[int64]*Order{},
		orderIDSeq:    1000,
		warmedConIDs:  map[int64]bool{},
		requestCounts: map[string]int{},
		historySeed:   config.HistorySeed,
		historyBars:   config.HistoryBars,
	}

	for symbol, conid := range server.contracts {
		server.symbolsByConID[conid] = symbol
	}

	return server
}

// Start starts the mock gateway on the given address.
// If address is empty or ":0", a random available port is used.
func (s *MockGatewayServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	router := mux.NewRouter()
	router.Use(s.intercept)

	router.HandleFunc("/v1/api/iserver/accounts", s.handleAccounts).Methods("GET")
	router.HandleFunc("/v1/api/portfolio/{accountId}/summary", s.handleSummary).Methods("GET")
	router.HandleFunc("/v1/api/portfolio/{accountId}/positions/{pageId}", s.handlePositions).Methods("GET")
	router.HandleFunc("/v1/api/iserver/account/orders", s.handleOrders).Methods("GET")
	router.HandleFunc("/v1/api/iserver/secdef/search", s.handleContractSearch).Methods("GET")
	router.HandleFunc("/v1/api/iserver/marketdata/snapshot", s.handleSnapshot).Methods("GET")
	router.HandleFunc("/v1/api/iserver/marketdata/history", s.handleHistory).Methods("GET")
	router.HandleFunc("/v1/api/iserver/secdef/opt-params", s.handleOptionParams).Methods("GET")
	router.HandleFunc("/v1/api/iserver/account/{accountId}/orders", s.handlePlaceOrders).Methods("POST")
	router.HandleFunc("/v1/api/iserver/account/{accountId}/order/{orderId}", s.handleCancelOrder).Methods("DELETE")

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("mock gateway error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the mock gateway.
func (s *MockGatewayServer) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Address returns the address the server is listening on.
func (s *MockGatewayServer) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// BaseURL returns the base URL for the server.
func (s *MockGatewayServer) BaseURL() string {
	return "http://" + s.Address()
}

// intercept counts every routed request and enforces the simulated
// session state.
func (s *MockGatewayServer) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if template, err := route.GetPathTemplate(); err == nil {
				key = r.Method + " " + template
			}
		}

		s.mu.Lock()
		s.requestCounts[key]++
		unauthorized := s.unauthorized
		s.mu.Unlock()

		if unauthorized {
			writeError(w, http.StatusUnauthorized, 0, "not authenticated")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequestCount returns how many times a route template was hit, e.g.
// RequestCount("POST", "/v1/api/iserver/account/{accountId}/orders").
func (s *MockGatewayServer) RequestCount(method string, template string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.requestCounts[method+" "+template]
}

// SnapshotWarmups returns how many snapshot requests were answered without
// price fields because the contract was not warmed up yet.
func (s *MockGatewayServer) SnapshotWarmups() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotWarmups
}

// SetQuote sets the quote for a symbol.
func (s *MockGatewayServer) SetQuote(symbol string, quote Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[symbol] = quote
}

// AddContract registers a stock contract.
func (s *MockGatewayServer) AddContract(symbol string, conid int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts[symbol] = conid
	s.symbolsByConID[conid] = symbol
}

// SetPositions replaces the position rows.
func (s *MockGatewayServer) SetPositions(positions []Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = positions
}

// DenyMarketData makes quote and history requests for the symbol fail with
// the given brokerage error code (354 is the no-subscription code).
func (s *MockGatewayServer) DenyMarketData(symbol string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deniedSymbols[symbol] = code
}

// SetUnauthorized makes every request fail with 401 when set.
func (s *MockGatewayServer) SetUnauthorized(unauthorized bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unauthorized = unauthorized
}

// RejectNextOrder makes the next order submission come back rejected with
// the given reason.
func (s *MockGatewayServer) RejectNextOrder(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectReason = reason
}

// GetOrder returns an order by ID.
func (s *MockGatewayServer) GetOrder(orderID int64) *Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if order, ok := s.orders[orderID]; ok {
		copied := *order
		return &copied
	}

	return nil
}

// OrderCount returns the number of orders on the book.
func (s *MockGatewayServer) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.orders)
}

// Handlers

// handleAccounts handles GET /v1/api/iserver/accounts.
func (s *MockGatewayServer) handleAccounts(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	writeJSON(w, map[string]any{
		"accounts":        []string{s.accountID},
		"selectedAccount": s.accountID,
	})
}

// handleSummary handles GET /v1/api/portfolio/{accountId}/summary.
func (s *MockGatewayServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if mux.Vars(r)["accountId"] != s.accountID {
		writeError(w, http.StatusBadRequest, 0, "unknown account")
		return
	}

	writeJSON(w, s.summary)
}

// handlePositions handles GET /v1/api/portfolio/{accountId}/positions/{pageId}.
func (s *MockGatewayServer) handlePositions(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accountID := mux.Vars(r)["accountId"]
	if accountID != s.accountID {
		writeError(w, http.StatusBadRequest, 0, "unknown account")
		return
	}

	page, err := strconv.Atoi(mux.Vars(r)["pageId"])
	if err != nil || page < 0 {
		writeError(w, http.StatusBadRequest, 0, "invalid page")
		return
	}

	start := page * positionsPageSize
	if start >= len(s.positions) {
		writeJSON(w, []any{})
		return
	}

	end := start + positionsPageSize
	if end > len(s.positions) {
		end = len(s.positions)
	}

	type positionRow struct {
		AcctID string `json:"acctId"`
		Position
	}

	rows := make([]positionRow, 0, end-start)
	for _, p := range s.positions[start:end] {
		rows = append(rows, positionRow{AcctID: accountID, Position: p})
	}

	writeJSON(w, rows)
}

// handleOrders handles GET /v1/api/iserver/account/orders.
func (s *MockGatewayServer) handleOrders(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]map[string]any, 0, len(s.orders))
	for _, order := range s.orders {
		rows = append(rows, map[string]any{
			"orderId":           order.OrderID,
			"conid":             order.ConID,
			"ticker":            order.Ticker,
			"side":              order.Side,
			"orderType":         order.OrderType,
			"price":             order.Price,
			"auxPrice":          order.AuxPrice,
			"totalSize":         float64(order.Quantity),
			"filledQuantity":    0.0,
			"remainingQuantity": float64(order.Quantity),
			"avgPrice":          0.0,
			"status":            order.Status,
		})
	}

	writeJSON(w, map[string]any{
		"orders":   rows,
		"snapshot": true,
	})
}

// handleContractSearch handles GET /v1/api/iserver/secdef/search.
// Conids are strings here, matching the real gateway.
func (s *MockGatewayServer) handleContractSearch(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbol := r.URL.Query().Get("symbol")

	conid, ok := s.contracts[symbol]
	if !ok {
		writeJSON(w, []any{})
		return
	}

	writeJSON(w, []map[string]any{
		{
			"conid":          strconv.FormatInt(conid, 10),
			"symbol":         symbol,
			"description":    symbol + " INC",
			"instrumentType": "STK",
		},
	})
}

// handleSnapshot handles GET /v1/api/iserver/marketdata/snapshot.
// The first request for a contract returns no price fields, mimicking the
// gateway's subscribe-then-poll behavior.
func (s *MockGatewayServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conid, err := strconv.ParseInt(r.URL.Query().Get("conids"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid conid")
		return
	}

	symbol := s.symbolsByConID[conid]

	if code, denied := s.deniedSymbols[symbol]; denied {
		writeError(w, http.StatusBadRequest, code, "requires additional market data subscription")
		return
	}

	if !s.warmedConIDs[conid] {
		s.warmedConIDs[conid] = true
		s.snapshotWarmups++
		writeJSON(w, []map[string]any{{"conid": conid}})

		return
	}

	quote, ok := s.quotes[symbol]
	if !ok {
		writeJSON(w, []map[string]any{{"conid": conid}})
		return
	}

	writeJSON(w, []map[string]any{
		{
			"conid": conid,
			"31":    strconv.FormatFloat(quote.Last, 'f', -1, 64),
			"84":    strconv.FormatFloat(quote.Bid, 'f', -1, 64),
			"86":    strconv.FormatFloat(quote.Ask, 'f', -1, 64),
			"87":    strconv.FormatInt(quote.Volume, 10),
			"7741":  strconv.FormatFloat(quote.PriorClose, 'f', -1, 64),
		},
	})
}

// handleHistory handles GET /v1/api/iserver/marketdata/history.
// Bars are generated deterministically from the configured seed.
func (s *MockGatewayServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conid, err := strconv.ParseInt(r.URL.Query().Get("conid"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid conid")
		return
	}

	symbol := s.symbolsByConID[conid]

	if code, denied := s.deniedSymbols[symbol]; denied {
		writeError(w, http.StatusBadRequest, code, "requires additional market data subscription")
		return
	}

	if symbol == "" {
		writeError(w, http.StatusBadRequest, 0, "unknown contract")
		return
	}

	config := mocks.DefaultConfig()
	config.Count = s.historyBars
	config.Interval = parseBarInterval(r.URL.Query().Get("bar"))

	if quote, ok := s.quotes[symbol]; ok {
		config.InitialPrice = quote.Last
	}

	generator := mocks.NewDataGenerator(s.historySeed + conid)
	bars := generator.GenerateBars(config)

	data := make([]map[string]any, 0, len(bars))
	for _, bar := range bars {
		open, _ := bar.Open.Float64()
		high, _ := bar.High.Float64()
		low, _ := bar.Low.Float64()
		closePrice, _ := bar.Close.Float64()

		data = append(data, map[string]any{
			"t": bar.Date.UnixMilli(),
			"o": open,
			"h": high,
			"l": low,
			"c": closePrice,
			"v": float64(bar.Volume),
		})
	}

	writeJSON(w, map[string]any{
		"symbol": symbol,
		"data":   data,
		"points": len(data),
	})
}

// handleOptionParams handles GET /v1/api/iserver/secdef/opt-params.
func (s *MockGatewayServer) handleOptionParams(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbol := r.URL.Query().Get("symbol")

	venues, ok := s.optionVenues[symbol]
	if !ok {
		writeJSON(w, []any{})
		return
	}

	writeJSON(w, venues)
}

// handlePlaceOrders handles POST /v1/api/iserver/account/{accountId}/orders.
func (s *MockGatewayServer) handlePlaceOrders(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Orders []struct {
			AcctID    string  `json:"acctId"`
			ConID     int64   `json:"conid"`
			Ticker    string  `json:"ticker"`
			OrderType string  `json:"orderType"`
			Side      string  `json:"side"`
			Quantity  int64   `json:"quantity"`
			Price     float64 `json:"price"`
			AuxPrice  float64 `json:"auxPrice"`
			TIF       string  `json:"tif"`
			COID      string  `json:"cOID"`
		} `json:"orders"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Orders) == 0 {
		writeError(w, http.StatusBadRequest, 0, "invalid order payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mux.Vars(r)["accountId"] != s.accountID {
		writeError(w, http.StatusBadRequest, 0, "unknown account")
		return
	}

	if s.rejectReason != "" {
		reason := s.rejectReason
		s.rejectReason = ""

		writeJSON(w, []map[string]any{
			{"order_id": "0", "order_status": "Rejected", "text": reason},
		})

		return
	}

	submitted := req.Orders[0]
	s.orderIDSeq++

	order := &Order{
		OrderID:       s.orderIDSeq,
		ConID:         submitted.ConID,
		Ticker:        submitted.Ticker,
		Side:          submitted.Side,
		OrderType:     submitted.OrderType,
		Price:         submitted.Price,
		AuxPrice:      submitted.AuxPrice,
		Quantity:      submitted.Quantity,
		TIF:           submitted.TIF,
		ClientOrderID: submitted.COID,
		Status:        "Submitted",
	}
	s.orders[order.OrderID] = order

	writeJSON(w, []map[string]any{
		{
			"order_id":     strconv.FormatInt(order.OrderID, 10),
			"order_status": "Submitted",
			"text":         "",
		},
	})
}

// handleCancelOrder handles DELETE /v1/api/iserver/account/{accountId}/order/{orderId}.
func (s *MockGatewayServer) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orderID, err := strconv.ParseInt(mux.Vars(r)["orderId"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, "invalid order id")
		return
	}

	order, ok := s.orders[orderID]
	if !ok {
		writeError(w, http.StatusNotFound, 0, "Order not found")
		return
	}

	order.Status = "Cancelled"

	writeJSON(w, map[string]any{
		"order_id": order.OrderID,
		"conid":    order.ConID,
		"msg":      "Request was submitted",
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message, "code": code})
}

// parseBarInterval maps the gateway's bar size strings to durations.
func parseBarInterval(bar string) time.Duration {
	switch bar {
	case "1 min":
		return time.Minute
	case "5 min":
		return 5 * time.Minute
	case "15 min":
		return 15 * time.Minute
	case "1 hour":
		return time.Hour
	case "1 day":
		return 24 * time.Hour
	default:
		return time.Hour
	}
}
