package rest

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/juju/errors"

	"github.com/alpacaconnect/alpaca-sdk-go/common"
)

// GetTradesParams bounds the historical trades returned by GetTrades. Zero
// fields are left to server defaults.
type GetTradesParams struct {
	Start time.Time
	End   time.Time

	// Limit caps the number of trades in the page.
	Limit int

	// PageToken resumes listing from where the previous page stopped.
	PageToken string
}

// GetTrades returns one page of historical trades for the symbol, oldest
// first. Follow TradePage.NextPageToken to get the rest.
func (c *RESTClient) GetTrades(ctx context.Context, symbol string, params GetTradesParams) (common.TradePage, error) {
	reqParams := map[string]string{}

	if !params.Start.IsZero() {
		reqParams["start"] = params.Start.Format(time.RFC3339)
	}
	if !params.End.IsZero() {
		reqParams["end"] = params.End.Format(time.RFC3339)
	}
	if params.Limit > 0 {
		reqParams["limit"] = strconv.Itoa(params.Limit)
	}
	if params.PageToken != "" {
		reqParams["page_token"] = params.PageToken
	}

	result, err := c.do(ctx, request{
		baseURL:  c.params.DataURL,
		endpoint: "v2/stocks/" + symbol + "/trades",
		params:   reqParams,
	})
	if err != nil {
		return common.TradePage{}, errors.Trace(err)
	}

	page := common.TradePage{}
	err = json.Unmarshal(result, &page)

	return page, errors.Trace(err)
}
