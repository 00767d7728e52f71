// Package ibgateway implements the broker surface against an IB gateway's
// REST bridge. The client holds no trading state; the only thing it caches
// is the discovered brokerage account id.
package ibgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/ibkr-mcp-server/internal/broker"
	"github.com/rxtech-lab/ibkr-mcp-server/internal/logger"
	"github.com/rxtech-lab/ibkr-mcp-server/internal/types"
	"github.com/rxtech-lab/ibkr-mcp-server/pkg/errors"
	"go.uber.org/zap"
)

const (
	apiPrefix      = "/v1/api"
	clientIDHeader = "X-IBKR-Client-Id"

	// The gateway pages positions in batches of 100.
	positionsPageSize = 100

	// The first snapshot for a contract often arrives before the gateway
	// has finished subscribing it and carries no price fields. One delayed
	// retry primes it.
	snapshotRetryDelay = 150 * time.Millisecond

	defaultTimeout = 30 * time.Second
)

// Snapshot field ids in the gateway's numbered-field scheme.
const (
	fieldLastPrice  = "31"
	fieldBidPrice   = "84"
	fieldAskPrice   = "86"
	fieldVolume     = "87"
	fieldPriorClose = "7741"
)

var snapshotFields = strings.Join([]string{
	fieldLastPrice,
	fieldBidPrice,
	fieldAskPrice,
	fieldVolume,
	fieldPriorClose,
}, ",")

// Brokerage error codes meaning the account lacks a market data
// subscription for the requested instrument.
var entitlementCodes = map[int]struct{}{
	354:   {},
	10090: {},
	10167: {},
}

// Client talks to one IB gateway.
type Client struct {
	httpClient *http.Client
	baseURL    string
	config     Config
	logger     *logger.Logger

	mu        sync.Mutex
	accountID string
}

// NewClient builds a gateway client from the config. No connection is made
// here; the first request that needs the gateway establishes one.
func NewClient(config Config, log *logger.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s:%d", config.Host, config.Port)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		config:     config,
		logger:     log,
		accountID:  config.AccountID,
	}, nil
}

// CheckConnection verifies the gateway answers and has a brokerage session.
// It never caches anything so it stays meaningful as a health probe.
func (c *Client) CheckConnection(ctx context.Context) error {
	var accounts accountsResponse
	if err := c.do(ctx, http.MethodGet, "/iserver/accounts", nil, nil, &accounts, errors.ErrCodeUpstreamRefused); err != nil {
		return err
	}

	if len(accounts.Accounts) == 0 && accounts.SelectedAccount == "" {
		return errors.New(errors.ErrCodeGatewayNotReady, "gateway reported no brokerage accounts")
	}

	return nil
}

// GetAccountSummary returns the account balances and value tags.
func (c *Client) GetAccountSummary(ctx context.Context) (types.AccountSummary, error) {
	accountID, err := c.ensureAccountID(ctx)
	if err != nil {
		return types.AccountSummary{}, err
	}

	var summary map[string]summaryValueDTO

	path := fmt.Sprintf("/portfolio/%s/summary", url.PathEscape(accountID))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &summary, errors.ErrCodeUpstreamRefused); err != nil {
		return types.AccountSummary{}, err
	}

	return convertAccountSummary(accountID, summary), nil
}

// GetPositions returns all currently held positions across pages.
func (c *Client) GetPositions(ctx context.Context) ([]types.Position, error) {
	accountID, err := c.ensureAccountID(ctx)
	if err != nil {
		return nil, err
	}

	positions := []types.Position{}

	for page := 0; ; page++ {
		var batch []positionDTO

		path := fmt.Sprintf("/portfolio/%s/positions/%d", url.PathEscape(accountID), page)
		if err := c.do(ctx, http.MethodGet, path, nil, nil, &batch, errors.ErrCodeUpstreamRefused); err != nil {
			return nil, err
		}

		for _, dto := range batch {
			positions = append(positions, convertPosition(dto))
		}

		if len(batch) < positionsPageSize {
			break
		}
	}

	return positions, nil
}

// GetOrders returns the orders on the gateway's book, open and terminal.
func (c *Client) GetOrders(ctx context.Context) ([]types.OrderInfo, error) {
	var resp ordersResponse
	if err := c.do(ctx, http.MethodGet, "/iserver/account/orders", nil, nil, &resp, errors.ErrCodeUpstreamRefused); err != nil {
		return nil, err
	}

	orders := make([]types.OrderInfo, 0, len(resp.Orders))
	for _, dto := range resp.Orders {
		orders = append(orders, convertOrder(dto))
	}

	return orders, nil
}

// GetStockPrice returns a snapshot quote for one stock.
func (c *Client) GetStockPrice(ctx context.Context, req types.QuoteRequest) (types.StockPrice, error) {
	conid, err := c.resolveContract(ctx, req.Symbol, req.Exchange)
	if err != nil {
		return types.StockPrice{}, err
	}

	snapshot, err := c.fetchSnapshot(ctx, conid)
	if err != nil {
		return types.StockPrice{}, err
	}

	if !snapshotHasPrices(snapshot) {
		select {
		case <-ctx.Done():
			return types.StockPrice{}, errors.Wrap(errors.ErrCodeRequestTimeout, "snapshot retry canceled", ctx.Err())
		case <-time.After(snapshotRetryDelay):
		}

		snapshot, err = c.fetchSnapshot(ctx, conid)
		if err != nil {
			return types.StockPrice{}, err
		}
	}

	if !snapshotHasPrices(snapshot) {
		return types.StockPrice{}, errors.Newf(errors.ErrCodeNoMarketData, "no market data returned for symbol %s", req.Symbol)
	}

	return types.StockPrice{
		Symbol:    req.Symbol,
		Exchange:  req.Exchange,
		Bid:       snapshotDecimal(snapshot, fieldBidPrice),
		Ask:       snapshotDecimal(snapshot, fieldAskPrice),
		Last:      snapshotDecimal(snapshot, fieldLastPrice),
		Close:     snapshotDecimal(snapshot, fieldPriorClose),
		Volume:    snapshotInt(snapshot, fieldVolume),
		Timestamp: time.Now().UTC(),
	}, nil
}

// GetHistoricalData returns OHLCV bars. Duration and bar size pass through
// to the gateway verbatim; bars come back in the gateway's order.
func (c *Client) GetHistoricalData(ctx context.Context, req types.HistoryRequest) ([]types.HistoricalBar, error) {
	conid, err := c.resolveContract(ctx, req.Symbol, req.Exchange)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("conid", strconv.FormatInt(conid, 10))
	query.Set("period", req.Duration)
	query.Set("bar", req.BarSize)
	// Regular trading hours, trade prices.
	query.Set("outsideRth", "false")
	query.Set("source", "trades")

	var resp historyResponse
	if err := c.do(ctx, http.MethodGet, "/iserver/marketdata/history", query, nil, &resp, errors.ErrCodeHistoryUnavailable); err != nil {
		return nil, err
	}

	bars := make([]types.HistoricalBar, 0, len(resp.Data))
	for _, dto := range resp.Data {
		bars = append(bars, convertBar(dto))
	}

	return bars, nil
}

// GetOptionChain returns the option contracts each venue lists for the
// underlying.
func (c *Client) GetOptionChain(ctx context.Context, req types.OptionChainRequest) ([]types.OptionChain, error) {
	conid, err := c.resolveContract(ctx, req.Symbol, req.Exchange)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("symbol", req.Symbol)
	query.Set("conid", strconv.FormatInt(conid, 10))

	var venues []optionParamsDTO
	if err := c.do(ctx, http.MethodGet, "/iserver/secdef/opt-params", query, nil, &venues, errors.ErrCodeNoOptionDefinitions); err != nil {
		return nil, err
	}

	chains := make([]types.OptionChain, 0, len(venues))
	for _, dto := range venues {
		chains = append(chains, convertOptionChain(dto))
	}

	return chains, nil
}

// PlaceOrder submits one order ticket. A rejection the gateway reports
// in-band comes back as a REJECTED result; transport and session failures
// come back as errors.
func (c *Client) PlaceOrder(ctx context.Context, ticket types.OrderTicket) (types.OrderResult, error) {
	accountID, err := c.ensureAccountID(ctx)
	if err != nil {
		return types.OrderResult{}, err
	}

	conid, err := c.resolveContract(ctx, ticket.Symbol, ticket.Exchange)
	if err != nil {
		return types.OrderResult{}, err
	}

	order := orderRequestDTO{
		AccountID:     accountID,
		ConID:         conid,
		Ticker:        ticket.Symbol,
		OrderType:     gatewayOrderType(ticket.OrderType),
		Side:          string(ticket.Action),
		Quantity:      ticket.Quantity,
		TIF:           gatewayTimeInForce(ticket.OrderType),
		ClientOrderID: ticket.ClientID,
	}

	if ticket.LimitPrice.IsSome() {
		order.Price, _ = ticket.LimitPrice.Unwrap().Float64()
	}

	if ticket.StopPrice.IsSome() {
		order.AuxPrice, _ = ticket.StopPrice.Unwrap().Float64()
	}

	var replies []orderReplyDTO

	path := fmt.Sprintf("/iserver/account/%s/orders", url.PathEscape(accountID))
	body := ordersRequestDTO{Orders: []orderRequestDTO{order}}

	if err := c.do(ctx, http.MethodPost, path, nil, body, &replies, errors.ErrCodeOrderRejected); err != nil {
		return types.OrderResult{}, err
	}

	if len(replies) == 0 {
		return types.OrderResult{}, errors.New(errors.ErrCodeOrderRejected, "gateway returned no order reply")
	}

	result := convertOrderReply(ticket, replies[0])

	c.logger.Info("order submitted",
		zap.Int64("order_id", result.OrderID),
		zap.String("symbol", ticket.Symbol),
		zap.String("status", string(result.Status)),
	)

	return result, nil
}

// CancelOrder requests cancellation of an open order.
func (c *Client) CancelOrder(ctx context.Context, orderID int64) (types.CancelResult, error) {
	accountID, err := c.ensureAccountID(ctx)
	if err != nil {
		return types.CancelResult{}, err
	}

	var reply cancelReplyDTO

	path := fmt.Sprintf("/iserver/account/%s/order/%d", url.PathEscape(accountID), orderID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, &reply, errors.ErrCodeOrderNotFound); err != nil {
		return types.CancelResult{}, err
	}

	result := types.CancelResult{
		OrderID: orderID,
		Status:  types.OrderStatusCancelled,
	}

	if reply.Msg != "" {
		result.Reason = optional.Some(reply.Msg)
	}

	c.logger.Info("order cancellation requested", zap.Int64("order_id", orderID))

	return result, nil
}

// ensureAccountID returns the pinned or previously discovered account id,
// asking the gateway once otherwise. The gateway's selected account wins
// over the listing order.
func (c *Client) ensureAccountID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accountID != "" {
		return c.accountID, nil
	}

	var accounts accountsResponse
	if err := c.do(ctx, http.MethodGet, "/iserver/accounts", nil, nil, &accounts, errors.ErrCodeUpstreamRefused); err != nil {
		return "", err
	}

	accountID := accounts.SelectedAccount
	if accountID == "" && len(accounts.Accounts) > 0 {
		accountID = accounts.Accounts[0]
	}

	if accountID == "" {
		return "", errors.New(errors.ErrCodeGatewayNotReady, "gateway reported no brokerage accounts")
	}

	c.accountID = accountID
	c.logger.Info("discovered brokerage account", zap.String("account_id", accountID))

	return accountID, nil
}

// resolveContract qualifies a symbol into a contract id on the requested
// exchange. Every quote, history, chain, and order call qualifies fresh.
func (c *Client) resolveContract(ctx context.Context, symbol string, exchange string) (int64, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("secType", "STK")
	query.Set("exchange", exchange)

	var results []contractDTO
	if err := c.do(ctx, http.MethodGet, "/iserver/secdef/search", query, nil, &results, errors.ErrCodeUpstreamRefused); err != nil {
		return 0, err
	}

	for _, result := range results {
		conid, err := strconv.ParseInt(result.ConID, 10, 64)
		if err != nil || conid == 0 {
			continue
		}

		return conid, nil
	}

	return 0, errors.Newf(errors.ErrCodeContractNotFound, "no stock contract found for symbol %s", symbol)
}

func (c *Client) fetchSnapshot(ctx context.Context, conid int64) (map[string]any, error) {
	query := url.Values{}
	query.Set("conids", strconv.FormatInt(conid, 10))
	query.Set("fields", snapshotFields)

	var entries []map[string]any
	if err := c.do(ctx, http.MethodGet, "/iserver/marketdata/snapshot", query, nil, &entries, errors.ErrCodeUpstreamRefused); err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return map[string]any{}, nil
	}

	return entries[0], nil
}

// do runs one gateway request. refuseCode is the error code used when the
// gateway answers with a client error the global classification does not
// recognize; each call site picks the code that names its own failure.
func (c *Client) do(ctx context.Context, method string, path string, query url.Values, body any, dst any, refuseCode errors.ErrorCode) error {
	endpoint := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(errors.ErrCodeUnknown, "failed to encode gateway request", err)
		}

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnknown, "failed to build gateway request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(clientIDHeader, strconv.Itoa(c.config.ClientID))

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.config.Username != "" && c.config.Password != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	c.logger.Debug("gateway request", zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectionFailed, "failed to read gateway response", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return classifyStatusError(resp.StatusCode, data, refuseCode)
	}

	if dst == nil {
		return nil
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Wrap(errors.ErrCodeUnknown, "failed to decode gateway response", err)
	}

	return nil
}

// classifyTransportError maps request transport failures: timeouts keep
// their own code, everything else means the gateway is unreachable.
func classifyTransportError(err error) error {
	var urlErr *url.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &urlErr) && urlErr.Timeout():
		return errors.Wrap(errors.ErrCodeRequestTimeout, "gateway request timed out", err)
	case errors.Is(err, context.Canceled):
		return errors.Wrap(errors.ErrCodeRequestTimeout, "gateway request canceled", err)
	default:
		return errors.Wrap(errors.ErrCodeConnectionFailed, "failed to reach gateway", err)
	}
}

// classifyStatusError maps non-2xx gateway answers. Entitlement codes win
// over the HTTP status; auth and server failures mean the gateway cannot
// serve anything right now.
func classifyStatusError(status int, body []byte, refuseCode errors.ErrorCode) error {
	var gwErr gatewayErrorDTO

	_ = json.Unmarshal(body, &gwErr)

	message := gwErr.Error
	if message == "" {
		message = strings.TrimSpace(string(body))
	}

	if message == "" {
		message = http.StatusText(status)
	}

	if _, ok := entitlementCodes[gwErr.Code]; ok {
		return errors.Newf(errors.ErrCodeNoEntitlement, "no market data entitlement: %s", message)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Newf(errors.ErrCodeGatewayNotReady, "gateway session not authenticated: %s", message)
	case status >= http.StatusInternalServerError:
		return errors.Newf(errors.ErrCodeGatewayNotReady, "gateway not ready: %s", message)
	default:
		return errors.Newf(refuseCode, "%s", message)
	}
}

var _ broker.Broker = (*Client)(nil)
