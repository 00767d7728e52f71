package types

import "github.com/shopspring/decimal"

// AccountSummary represents the account state reported by the gateway at
// query time. Values are never cached; every query builds a fresh summary.
type AccountSummary struct {
	// AccountID is the brokerage account the summary belongs to.
	AccountID string `json:"account_id" yaml:"account_id"`
	// Currency is the base currency of all amounts below.
	Currency string `json:"currency" yaml:"currency"`
	// NetLiquidation is the total account value if liquidated now.
	NetLiquidation decimal.Decimal `json:"net_liquidation" yaml:"net_liquidation"`
	// CashBalance is the settled cash balance.
	CashBalance decimal.Decimal `json:"cash_balance" yaml:"cash_balance"`
	// TotalCashValue is cash including unsettled funds.
	TotalCashValue decimal.Decimal `json:"total_cash_value" yaml:"total_cash_value"`
	// BuyingPower is the available amount for new purchases.
	BuyingPower decimal.Decimal `json:"buying_power" yaml:"buying_power"`
	// GrossPositionValue is the absolute market value of all positions.
	GrossPositionValue decimal.Decimal `json:"gross_position_value" yaml:"gross_position_value"`
}

// Position represents one held instrument. Quantity is signed: negative
// means short.
type Position struct {
	AccountID string `json:"account_id" yaml:"account_id"`
	Symbol    string `json:"symbol" yaml:"symbol"`
	// SecType is the gateway's security type label (STK, OPT, FUT, ...).
	SecType       string          `json:"sec_type" yaml:"sec_type"`
	Quantity      decimal.Decimal `json:"quantity" yaml:"quantity"`
	AvgCost       decimal.Decimal `json:"avg_cost" yaml:"avg_cost"`
	MarketPrice   decimal.Decimal `json:"market_price" yaml:"market_price"`
	MarketValue   decimal.Decimal `json:"market_value" yaml:"market_value"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl" yaml:"unrealized_pnl"`
	RealizedPnL   decimal.Decimal `json:"realized_pnl" yaml:"realized_pnl"`
}
