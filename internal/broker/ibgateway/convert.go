package ibgateway

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/ibkr-mcp-server/internal/types"
	"github.com/shopspring/decimal"
)

// Summary tags read from the gateway. The gateway keys them lowercase.
const (
	tagNetLiquidation     = "netliquidation"
	tagCashBalance        = "cashbalance"
	tagTotalCashValue     = "totalcashvalue"
	tagBuyingPower        = "buyingpower"
	tagGrossPositionValue = "grosspositionvalue"
)

func convertAccountSummary(accountID string, summary map[string]summaryValueDTO) types.AccountSummary {
	out := types.AccountSummary{
		AccountID:          accountID,
		NetLiquidation:     summaryAmount(summary, tagNetLiquidation),
		CashBalance:        summaryAmount(summary, tagCashBalance),
		TotalCashValue:     summaryAmount(summary, tagTotalCashValue),
		BuyingPower:        summaryAmount(summary, tagBuyingPower),
		GrossPositionValue: summaryAmount(summary, tagGrossPositionValue),
	}

	for _, tag := range []string{tagNetLiquidation, tagCashBalance, tagTotalCashValue, tagBuyingPower, tagGrossPositionValue} {
		if value, ok := summary[tag]; ok && value.Currency != "" {
			out.Currency = value.Currency

			break
		}
	}

	return out
}

func summaryAmount(summary map[string]summaryValueDTO, tag string) decimal.Decimal {
	value, ok := summary[tag]
	if !ok {
		return decimal.Zero
	}

	return decimal.NewFromFloat(value.Amount)
}

func convertPosition(dto positionDTO) types.Position {
	symbol := dto.Ticker
	if symbol == "" {
		symbol = dto.ContractDesc
	}

	return types.Position{
		AccountID:     dto.AccountID,
		Symbol:        symbol,
		SecType:       dto.AssetClass,
		Quantity:      decimal.NewFromFloat(dto.Position),
		AvgCost:       decimal.NewFromFloat(dto.AvgCost),
		MarketPrice:   decimal.NewFromFloat(dto.MarketPrice),
		MarketValue:   decimal.NewFromFloat(dto.MarketValue),
		UnrealizedPnL: decimal.NewFromFloat(dto.UnrealizedPnL),
		RealizedPnL:   decimal.NewFromFloat(dto.RealizedPnL),
	}
}

func convertOrder(dto orderDTO) types.OrderInfo {
	orderType := mapGatewayOrderType(dto.OrderType)

	info := types.OrderInfo{
		OrderID:           dto.OrderID,
		Symbol:            dto.Ticker,
		Action:            mapGatewayOrderSide(dto.Side),
		OrderType:         orderType,
		Status:            mapGatewayOrderStatus(dto.Status),
		Quantity:          decimal.NewFromFloat(dto.TotalSize),
		FilledQuantity:    decimal.NewFromFloat(dto.FilledQuantity),
		RemainingQuantity: decimal.NewFromFloat(dto.RemainingQuantity),
		AvgFillPrice:      decimal.NewFromFloat(dto.AvgPrice),
	}

	if orderType == types.OrderTypeLimit && dto.Price != 0 {
		info.LimitPrice = optional.Some(decimal.NewFromFloat(dto.Price))
	}

	if orderType == types.OrderTypeStop && dto.AuxPrice != 0 {
		info.StopPrice = optional.Some(decimal.NewFromFloat(dto.AuxPrice))
	}

	return info
}

func convertBar(dto barDTO) types.HistoricalBar {
	return types.HistoricalBar{
		Date:   time.UnixMilli(dto.T).UTC(),
		Open:   decimal.NewFromFloat(dto.O),
		High:   decimal.NewFromFloat(dto.H),
		Low:    decimal.NewFromFloat(dto.L),
		Close:  decimal.NewFromFloat(dto.C),
		Volume: int64(dto.V),
	}
}

func convertOptionChain(dto optionParamsDTO) types.OptionChain {
	floats := append([]float64(nil), dto.Strikes...)
	sort.Float64s(floats)

	strikes := make([]decimal.Decimal, 0, len(floats))
	for _, strike := range floats {
		strikes = append(strikes, decimal.NewFromFloat(strike))
	}

	expirations := append([]string(nil), dto.Expirations...)
	sort.Strings(expirations)

	multipliers := make([]int64, 0, 1)

	if dto.Multiplier != "" {
		if multiplier, err := strconv.ParseInt(dto.Multiplier, 10, 64); err == nil {
			multipliers = append(multipliers, multiplier)
		}
	}

	return types.OptionChain{
		Exchange:    dto.Exchange,
		Strikes:     strikes,
		Expirations: expirations,
		Multipliers: multipliers,
	}
}

// snapshotHasPrices reports whether the snapshot carries at least one quote
// price. A snapshot without any is a not-yet-primed or unentitled contract.
func snapshotHasPrices(snapshot map[string]any) bool {
	for _, field := range []string{fieldLastPrice, fieldBidPrice, fieldAskPrice} {
		if _, ok := snapshot[field]; ok {
			return true
		}
	}

	return false
}

// snapshotDecimal reads one numbered snapshot field. The gateway reports
// quote fields as strings; older builds use bare numbers, so both parse.
func snapshotDecimal(snapshot map[string]any, field string) decimal.Decimal {
	switch value := snapshot[field].(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return decimal.Zero
		}

		return d
	case float64:
		return decimal.NewFromFloat(value)
	default:
		return decimal.Zero
	}
}

func snapshotInt(snapshot map[string]any, field string) int64 {
	return snapshotDecimal(snapshot, field).IntPart()
}

func convertOrderReply(ticket types.OrderTicket, reply orderReplyDTO) types.OrderResult {
	// Unparseable order ids stay zero; the gateway omits the id on some
	// rejections.
	orderID, _ := strconv.ParseInt(reply.OrderID, 10, 64)

	result := types.OrderResult{
		OrderID:  orderID,
		Symbol:   ticket.Symbol,
		Action:   ticket.Action,
		Status:   mapGatewayOrderStatus(reply.OrderStatus),
		Quantity: ticket.Quantity,
	}

	if result.Status == types.OrderStatusRejected {
		reason := reply.Text
		if reason == "" {
			reason = "rejected by gateway"
		}

		result.Reason = optional.Some(reason)
	}

	return result
}

// mapGatewayOrderStatus maps the gateway's order status labels to our OrderStatus type.
func mapGatewayOrderStatus(status string) types.OrderStatus {
	switch status {
	case "PendingSubmit", "PreSubmitted", "PendingCancel":
		return types.OrderStatusPending
	case "Submitted":
		return types.OrderStatusSubmitted
	case "Filled":
		return types.OrderStatusFilled
	case "Cancelled":
		return types.OrderStatusCancelled
	case "Rejected":
		return types.OrderStatusRejected
	default:
		return types.OrderStatusInactive
	}
}

// mapGatewayOrderType maps the gateway's order type labels to our OrderType
// type. Types we never place (a human can work the same account from TWS)
// pass through uppercased.
func mapGatewayOrderType(orderType string) types.OrderType {
	switch orderType {
	case "Limit", "LMT":
		return types.OrderTypeLimit
	case "Stop", "STP":
		return types.OrderTypeStop
	case "Market", "MKT":
		return types.OrderTypeMarket
	default:
		return types.OrderType(strings.ToUpper(orderType))
	}
}

func mapGatewayOrderSide(side string) types.OrderAction {
	if strings.EqualFold(side, string(types.OrderActionSell)) {
		return types.OrderActionSell
	}

	return types.OrderActionBuy
}

// gatewayOrderType renders our order type in the gateway's submission
// vocabulary.
func gatewayOrderType(orderType types.OrderType) string {
	switch orderType {
	case types.OrderTypeLimit:
		return "LMT"
	case types.OrderTypeStop:
		return "STP"
	default:
		return "MKT"
	}
}

// gatewayTimeInForce picks the time-in-force per order type: resting orders
// stay working until cancelled, market orders are day orders.
func gatewayTimeInForce(orderType types.OrderType) string {
	if orderType == types.OrderTypeMarket {
		return "DAY"
	}

	return "GTC"
}
