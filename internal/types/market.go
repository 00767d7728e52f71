package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockPrice is a point-in-time quote snapshot for one stock contract.
type StockPrice struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	// Exchange is the venue the quote was requested on.
	Exchange string          `json:"exchange" yaml:"exchange"`
	Bid      decimal.Decimal `json:"bid" yaml:"bid"`
	Ask      decimal.Decimal `json:"ask" yaml:"ask"`
	Last     decimal.Decimal `json:"last" yaml:"last"`
	// Close is the previous session's closing price.
	Close  decimal.Decimal `json:"close" yaml:"close"`
	Volume int64           `json:"volume" yaml:"volume"`
	// Timestamp is when the snapshot was taken, not an exchange timestamp.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// HistoricalBar is one OHLCV bar in a requested series.
type HistoricalBar struct {
	Date   time.Time       `json:"date" yaml:"date"`
	Open   decimal.Decimal `json:"open" yaml:"open"`
	High   decimal.Decimal `json:"high" yaml:"high"`
	Low    decimal.Decimal `json:"low" yaml:"low"`
	Close  decimal.Decimal `json:"close" yaml:"close"`
	Volume int64           `json:"volume" yaml:"volume"`
}

// OptionChain describes the option contracts one venue lists for an
// underlying: which strikes, which expirations, which multipliers. It
// carries no prices.
type OptionChain struct {
	// Exchange is the venue listing these contracts.
	Exchange string `json:"exchange" yaml:"exchange"`
	// Strikes is ascending.
	Strikes []decimal.Decimal `json:"strikes" yaml:"strikes"`
	// Expirations are YYYYMMDD strings, ascending.
	Expirations []string `json:"expirations" yaml:"expirations"`
	// Multipliers is the set of contract multipliers, usually just 100.
	Multipliers []int64 `json:"multipliers" yaml:"multipliers"`
}
