package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"

	"github.com/alpacaconnect/alpaca-sdk-go/common"
)

// GetPositions returns all open positions.
func (c *RESTClient) GetPositions(ctx context.Context) ([]common.Position, error) {
	result, err := c.do(ctx, request{
		endpoint: "v2/positions",
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	positions := []common.Position{}
	err = json.Unmarshal(result, &positions)

	return positions, errors.Trace(err)
}

// GetPosition returns the open position for the given symbol. A symbol with
// no open position is an *APIError with http status 404.
func (c *RESTClient) GetPosition(ctx context.Context, symbol string) (common.Position, error) {
	result, err := c.do(ctx, request{
		endpoint: "v2/positions/" + symbol,
	})
	if err != nil {
		return common.Position{}, errors.Trace(err)
	}

	position := common.Position{}
	err = json.Unmarshal(result, &position)

	return position, errors.Trace(err)
}

// ClosePositionOpts limits how much of a position ClosePosition liquidates.
// At most one of Qty and Percentage can be set; a zero opts closes the whole
// position.
type ClosePositionOpts struct {
	Qty        decimal.Decimal
	Percentage decimal.Decimal
}

// ClosePosition liquidates (part of) the position for the given symbol by
// placing a market order, which is returned.
func (c *RESTClient) ClosePosition(ctx context.Context, symbol string, opts ClosePositionOpts) (common.Order, error) {
	params := map[string]string{}
	if !opts.Qty.IsZero() {
		params["qty"] = opts.Qty.String()
	}
	if !opts.Percentage.IsZero() {
		params["percentage"] = opts.Percentage.String()
	}

	result, err := c.do(ctx, request{
		method:   http.MethodDelete,
		endpoint: "v2/positions/" + symbol,
		params:   params,
	})
	if err != nil {
		return common.Order{}, errors.Trace(err)
	}

	order := common.Order{}
	err = json.Unmarshal(result, &order)

	return order, errors.Trace(err)
}

// CloseAllPositions liquidates all open positions, optionally canceling the
// open orders on them first, and returns the per-position statuses.
func (c *RESTClient) CloseAllPositions(ctx context.Context, cancelOrders bool) ([]common.OrderIDStatus, error) {
	params := map[string]string{}
	if cancelOrders {
		params["cancel_orders"] = "true"
	}

	result, err := c.do(ctx, request{
		method:   http.MethodDelete,
		endpoint: "v2/positions",
		params:   params,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	statuses := []common.OrderIDStatus{}
	err = json.Unmarshal(result, &statuses)

	return statuses, errors.Trace(err)
}
