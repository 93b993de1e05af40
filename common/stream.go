package common

import (
	"time"

	"github.com/shopspring/decimal"
)

// ControlAck is an acknowledgement from a streaming endpoint: the result of
// an auth handshake, a connection greeting, or the echo of a subscription
// request. Which fields are set depends on the endpoint.
type ControlAck struct {
	// Stream is the control stream name on the account endpoint
	// ("authorization", "listening"); empty for market data acks.
	Stream string

	Status string
	Msg    string

	// Streams holds the stream names echoed by a "listen" request.
	Streams []string

	// Trades, Quotes and Bars hold the symbol lists echoed by a market data
	// "subscribe" request.
	Trades []string
	Quotes []string
	Bars   []string
}

// ControlError is an error message delivered in-band on a stream.
type ControlError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// TradeUpdate is one account event: an order was filled, canceled,
// replaced, and so on. The full order is attached.
type TradeUpdate struct {
	Event       string          `json:"event"`
	ExecutionID string          `json:"execution_id"`
	At          time.Time       `json:"timestamp"`
	Price       decimal.Decimal `json:"price"`
	Qty         decimal.Decimal `json:"qty"`
	PositionQty decimal.Decimal `json:"position_qty"`
	Order       Order           `json:"order"`
}

// StreamUpdate is one decoded unit of a streaming message. Exactly one of
// the fields is non-nil; it tags the semantic kind of the update.
type StreamUpdate struct {
	ControlAck   *ControlAck
	ControlError *ControlError
	Trade        *Trade
	Quote        *Quote
	Bar          *Bar
	TradeUpdate  *TradeUpdate
}

// Kind returns a human-readable name of the update's variant, for logging.
func (u StreamUpdate) Kind() string {
	switch {
	case u.ControlAck != nil:
		return "control-ack"
	case u.ControlError != nil:
		return "control-error"
	case u.Trade != nil:
		return "trade"
	case u.Quote != nil:
		return "quote"
	case u.Bar != nil:
		return "bar"
	case u.TradeUpdate != nil:
		return "trade-update"
	}
	return "empty"
}
