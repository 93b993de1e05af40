package common

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one market trade from the market data stream or the historical
// trades endpoint. Field tags follow the condensed v2 wire names.
//
// Type is the wire discriminator ("t" on the stream, absent on the
// historical endpoint). It needs an exact "T" home: encoding/json matches
// keys case-insensitively as a fallback, and without it the uppercase key
// would land in the Timestamp field tagged "t".
type Trade struct {
	Type       string          `json:"T,omitempty"`
	Symbol     string          `json:"S"`
	TradeID    int64           `json:"i"`
	Exchange   string          `json:"x"`
	Price      decimal.Decimal `json:"p"`
	Size       decimal.Decimal `json:"s"`
	Conditions []string        `json:"c"`
	Tape       string          `json:"z"`
	Timestamp  time.Time       `json:"t"`
}

// Quote is one NBBO quote from the market data stream. Type holds the wire
// discriminator ("q"); see Trade for why it needs an exact "T" home.
type Quote struct {
	Type        string          `json:"T,omitempty"`
	Symbol      string          `json:"S"`
	BidExchange string          `json:"bx"`
	BidPrice    decimal.Decimal `json:"bp"`
	BidSize     decimal.Decimal `json:"bs"`
	AskExchange string          `json:"ax"`
	AskPrice    decimal.Decimal `json:"ap"`
	AskSize     decimal.Decimal `json:"as"`
	Conditions  []string        `json:"c"`
	Tape        string          `json:"z"`
	Timestamp   time.Time       `json:"t"`
}

// Bar is one aggregated minute bar from the market data stream. Type holds
// the wire discriminator ("b"); see Trade for why it needs an exact "T" home.
type Bar struct {
	Type      string          `json:"T,omitempty"`
	Symbol    string          `json:"S"`
	Open      decimal.Decimal `json:"o"`
	High      decimal.Decimal `json:"h"`
	Low       decimal.Decimal `json:"l"`
	Close     decimal.Decimal `json:"c"`
	Volume    decimal.Decimal `json:"v"`
	Timestamp time.Time       `json:"t"`
}

// TradePage is one page of historical trades for a symbol, together with the
// token needed to fetch the next page (nil on the last page).
type TradePage struct {
	Trades        []Trade `json:"trades"`
	Symbol        string  `json:"symbol"`
	NextPageToken *string `json:"next_page_token"`
}
