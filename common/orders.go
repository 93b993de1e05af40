package common

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide represents the order side; e.g. "buy" or "sell".
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType represents the type of order; e.g. "market" or "limit".
type OrderType string

// The following constants define all supported order types.
const (
	MarketOrder       OrderType = "market"
	LimitOrder        OrderType = "limit"
	StopOrder         OrderType = "stop"
	StopLimitOrder    OrderType = "stop_limit"
	TrailingStopOrder OrderType = "trailing_stop"
)

// TimeInForce controls how long an order remains active.
type TimeInForce string

const (
	Day TimeInForce = "day"
	GTC TimeInForce = "gtc"
	OPG TimeInForce = "opg"
	CLS TimeInForce = "cls"
	IOC TimeInForce = "ioc"
	FOK TimeInForce = "fok"
)

// OrderStatus is the lifecycle status of an order.
type OrderStatus string

const (
	OrderNew             OrderStatus = "new"
	OrderPartiallyFilled OrderStatus = "partially_filled"
	OrderFilled          OrderStatus = "filled"
	OrderDoneForDay      OrderStatus = "done_for_day"
	OrderCanceled        OrderStatus = "canceled"
	OrderExpired         OrderStatus = "expired"
	OrderReplaced        OrderStatus = "replaced"
	OrderPendingCancel   OrderStatus = "pending_cancel"
	OrderPendingReplace  OrderStatus = "pending_replace"
	OrderAccepted        OrderStatus = "accepted"
	OrderPendingNew      OrderStatus = "pending_new"
	OrderStopped         OrderStatus = "stopped"
	OrderRejected        OrderStatus = "rejected"
	OrderSuspended       OrderStatus = "suspended"
	OrderCalculated      OrderStatus = "calculated"
)

// Order is one order as returned by the /v2/orders endpoints and by
// trade-update stream events.
type Order struct {
	ID            string     `json:"id"`
	ClientOrderID string     `json:"client_order_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	FilledAt      *time.Time `json:"filled_at"`
	ExpiredAt     *time.Time `json:"expired_at"`
	CanceledAt    *time.Time `json:"canceled_at"`
	FailedAt      *time.Time `json:"failed_at"`
	ReplacedAt    *time.Time `json:"replaced_at"`
	ReplacedBy    *string    `json:"replaced_by"`
	Replaces      *string    `json:"replaces"`

	AssetID    string `json:"asset_id"`
	Symbol     string `json:"symbol"`
	AssetClass string `json:"asset_class"`

	Qty            decimal.Decimal  `json:"qty"`
	FilledQty      decimal.Decimal  `json:"filled_qty"`
	Type           OrderType        `json:"type"`
	Side           OrderSide        `json:"side"`
	TimeInForce    TimeInForce      `json:"time_in_force"`
	LimitPrice     *decimal.Decimal `json:"limit_price"`
	StopPrice      *decimal.Decimal `json:"stop_price"`
	TrailPrice     *decimal.Decimal `json:"trail_price"`
	TrailPercent   *decimal.Decimal `json:"trail_percent"`
	FilledAvgPrice *decimal.Decimal `json:"filled_avg_price"`
	Status         OrderStatus      `json:"status"`
	ExtendedHours  bool             `json:"extended_hours"`
	Legs           []Order          `json:"legs"`
}

// OrderRequest is the payload for placing a new order.
type OrderRequest struct {
	Symbol        string           `json:"symbol"`
	Qty           *decimal.Decimal `json:"qty,omitempty"`
	Notional      *decimal.Decimal `json:"notional,omitempty"`
	Side          OrderSide        `json:"side"`
	Type          OrderType        `json:"type"`
	TimeInForce   TimeInForce      `json:"time_in_force"`
	LimitPrice    *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice     *decimal.Decimal `json:"stop_price,omitempty"`
	TrailPrice    *decimal.Decimal `json:"trail_price,omitempty"`
	TrailPercent  *decimal.Decimal `json:"trail_percent,omitempty"`
	ExtendedHours bool             `json:"extended_hours,omitempty"`
	ClientOrderID string           `json:"client_order_id,omitempty"`
	OrderClass    string           `json:"order_class,omitempty"`
}

// ReplaceOrderRequest is the payload for replacing an existing order. Only
// the set fields are changed.
type ReplaceOrderRequest struct {
	Qty           *decimal.Decimal `json:"qty,omitempty"`
	TimeInForce   TimeInForce      `json:"time_in_force,omitempty"`
	LimitPrice    *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice     *decimal.Decimal `json:"stop_price,omitempty"`
	Trail         *decimal.Decimal `json:"trail,omitempty"`
	ClientOrderID string           `json:"client_order_id,omitempty"`
}

// OrderIDStatus is one row of a cancel-all response: the order ID and the
// HTTP status of its cancellation attempt.
type OrderIDStatus struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
}
