package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/alpacaconnect/alpaca-sdk-go/common"
)

// GetOrdersParams filters the order list returned by GetOrders. Zero fields
// are left to server defaults.
type GetOrdersParams struct {
	// Status is "open", "closed" or "all".
	Status string

	Limit int

	After time.Time
	Until time.Time

	// Direction is "asc" or "desc" by submission time.
	Direction string

	// Nested includes the legs of multi-leg orders in the result.
	Nested bool

	Symbols []string
}

// GetOrders returns orders matching params.
func (c *RESTClient) GetOrders(ctx context.Context, params GetOrdersParams) ([]common.Order, error) {
	reqParams := map[string]string{}

	if params.Status != "" {
		reqParams["status"] = params.Status
	}
	if params.Limit > 0 {
		reqParams["limit"] = strconv.Itoa(params.Limit)
	}
	if !params.After.IsZero() {
		reqParams["after"] = params.After.Format(time.RFC3339)
	}
	if !params.Until.IsZero() {
		reqParams["until"] = params.Until.Format(time.RFC3339)
	}
	if params.Direction != "" {
		reqParams["direction"] = params.Direction
	}
	if params.Nested {
		reqParams["nested"] = "true"
	}
	if len(params.Symbols) > 0 {
		reqParams["symbols"] = strings.Join(params.Symbols, ",")
	}

	result, err := c.do(ctx, request{
		endpoint: "v2/orders",
		params:   reqParams,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	orders := []common.Order{}
	err = json.Unmarshal(result, &orders)

	return orders, errors.Trace(err)
}

// GetOpenOrders returns all orders which are still open.
func (c *RESTClient) GetOpenOrders(ctx context.Context) ([]common.Order, error) {
	orders, err := c.GetOrders(ctx, GetOrdersParams{Status: "open"})
	return orders, errors.Trace(err)
}

// PlaceOrder submits a new order. If req.ClientOrderID is empty, a random
// one is generated, so the returned order can always be found again by
// client order id.
func (c *RESTClient) PlaceOrder(ctx context.Context, req common.OrderRequest) (common.Order, error) {
	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.New().String()
	}

	result, err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "v2/orders",
		body:     &req,
	})
	if err != nil {
		return common.Order{}, errors.Trace(err)
	}

	order := common.Order{}
	err = json.Unmarshal(result, &order)

	return order, errors.Trace(err)
}

// GetOrder returns a single order by its server-assigned id.
func (c *RESTClient) GetOrder(ctx context.Context, orderID string) (common.Order, error) {
	result, err := c.do(ctx, request{
		endpoint: "v2/orders/" + orderID,
	})
	if err != nil {
		return common.Order{}, errors.Trace(err)
	}

	order := common.Order{}
	err = json.Unmarshal(result, &order)

	return order, errors.Trace(err)
}

// GetOrderByClientOrderID returns a single order by the client-assigned id
// it was submitted with.
func (c *RESTClient) GetOrderByClientOrderID(ctx context.Context, clientOrderID string) (common.Order, error) {
	result, err := c.do(ctx, request{
		endpoint: "v2/orders:by_client_order_id",
		params: map[string]string{
			"client_order_id": clientOrderID,
		},
	})
	if err != nil {
		return common.Order{}, errors.Trace(err)
	}

	order := common.Order{}
	err = json.Unmarshal(result, &order)

	return order, errors.Trace(err)
}

// ReplaceOrder updates the mutable fields of an open order. The server
// cancels the old order and returns its replacement.
func (c *RESTClient) ReplaceOrder(ctx context.Context, orderID string, req common.ReplaceOrderRequest) (common.Order, error) {
	result, err := c.do(ctx, request{
		method:   http.MethodPatch,
		endpoint: "v2/orders/" + orderID,
		body:     &req,
	})
	if err != nil {
		return common.Order{}, errors.Trace(err)
	}

	order := common.Order{}
	err = json.Unmarshal(result, &order)

	return order, errors.Trace(err)
}

// CancelOrder cancels an open order.
func (c *RESTClient) CancelOrder(ctx context.Context, orderID string) error {
	_, err := c.do(ctx, request{
		method:   http.MethodDelete,
		endpoint: "v2/orders/" + orderID,
	})

	return errors.Trace(err)
}

// CancelAllOrders cancels every open order and returns the per-order
// statuses.
func (c *RESTClient) CancelAllOrders(ctx context.Context) ([]common.OrderIDStatus, error) {
	result, err := c.do(ctx, request{
		method:   http.MethodDelete,
		endpoint: "v2/orders",
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	statuses := []common.OrderIDStatus{}
	err = json.Unmarshal(result, &statuses)

	return statuses, errors.Trace(err)
}
