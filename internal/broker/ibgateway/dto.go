package ibgateway

// Wire shapes of the gateway's REST bridge. Field names follow the
// gateway's JSON exactly; conversion to internal types happens in one
// place so gateway quirks (string conids, numbered snapshot fields,
// string multipliers) stay out of the rest of the codebase.

// accountsResponse is the answer to GET /iserver/accounts.
type accountsResponse struct {
	Accounts        []string `json:"accounts"`
	SelectedAccount string   `json:"selectedAccount"`
}

// summaryValueDTO is one tag value in GET /portfolio/{account}/summary.
type summaryValueDTO struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// positionDTO is one row of GET /portfolio/{account}/positions/{page}.
type positionDTO struct {
	AccountID     string  `json:"acctId"`
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

// ordersResponse is the answer to GET /iserver/account/orders.
type ordersResponse struct {
	Orders   []orderDTO `json:"orders"`
	Snapshot bool       `json:"snapshot"`
}

// orderDTO is one order on the gateway's book.
type orderDTO struct {
	OrderID           int64   `json:"orderId"`
	ConID             int64   `json:"conid"`
	Ticker            string  `json:"ticker"`
	Side              string  `json:"side"`
	OrderType         string  `json:"orderType"`
	Price             float64 `json:"price"`
	AuxPrice          float64 `json:"auxPrice"`
	TotalSize         float64 `json:"totalSize"`
	FilledQuantity    float64 `json:"filledQuantity"`
	RemainingQuantity float64 `json:"remainingQuantity"`
	AvgPrice          float64 `json:"avgPrice"`
	Status            string  `json:"status"`
}

// contractDTO is one match from GET /iserver/secdef/search.
type contractDTO struct {
	// ConID is the contract id. The gateway returns it as a string.
	ConID          string `json:"conid"`
	Symbol         string `json:"symbol"`
	Description    string `json:"description"`
	InstrumentType string `json:"instrumentType"`
}

// historyResponse is the answer to GET /iserver/marketdata/history.
type historyResponse struct {
	Symbol string   `json:"symbol"`
	Data   []barDTO `json:"data"`
	Points int      `json:"points"`
}

// barDTO is one OHLCV bar. T is epoch milliseconds.
type barDTO struct {
	T int64   `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

// optionParamsDTO is one venue's listing from GET /iserver/secdef/opt-params.
type optionParamsDTO struct {
	Exchange    string    `json:"exchange"`
	Strikes     []float64 `json:"strikes"`
	Expirations []string  `json:"expirations"`
	// Multiplier is the contract multiplier. The gateway returns it as a
	// string.
	Multiplier string `json:"multiplier"`
}

// ordersRequestDTO is the body of POST /iserver/account/{account}/orders.
type ordersRequestDTO struct {
	Orders []orderRequestDTO `json:"orders"`
}

// orderRequestDTO is one order submission.
type orderRequestDTO struct {
	AccountID string  `json:"acctId"`
	ConID     int64   `json:"conid"`
	Ticker    string  `json:"ticker"`
	OrderType string  `json:"orderType"`
	Side      string  `json:"side"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price,omitempty"`
	AuxPrice  float64 `json:"auxPrice,omitempty"`
	TIF       string  `json:"tif"`
	// ClientOrderID is our idempotency key for the submission, a fresh
	// UUID per ticket.
	ClientOrderID string `json:"cOID"`
}

// orderReplyDTO is one entry of the order submission answer. OrderID is a
// string for the same reason contractDTO.ConID is.
type orderReplyDTO struct {
	OrderID     string `json:"order_id"`
	OrderStatus string `json:"order_status"`
	Text        string `json:"text"`
}

// cancelReplyDTO is the answer to DELETE /iserver/account/{account}/order/{id}.
type cancelReplyDTO struct {
	OrderID int64  `json:"order_id"`
	ConID   int64  `json:"conid"`
	Msg     string `json:"msg"`
}

// gatewayErrorDTO is the error body the gateway attaches to non-2xx
// answers. Code carries the brokerage error number when one exists.
type gatewayErrorDTO struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
