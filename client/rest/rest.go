/*
Package rest provides a client for using the brokerage REST API: account
details, positions, order management, and historical market data.
*/
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/juju/errors"

	"github.com/alpacaconnect/alpaca-sdk-go/config"
	"github.com/alpacaconnect/alpaca-sdk-go/version"
)

// APIError is a non-2xx response from the server, decoded from its error
// body where possible.
type APIError struct {
	StatusCode int

	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (http %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

type RESTClient struct {
	params RESTClientParams
}

type RESTClientParams struct {
	// APIURL is the trading API URL to use. If empty, production will be
	// used (config.DefaultAPIURL).
	APIURL string

	// DataURL is the market data API URL to use. If empty,
	// config.DefaultDataURL is used.
	DataURL string

	APIKey    string
	SecretKey string

	// HTTPClient performs the requests; a client with a 30s timeout is used
	// if nil.
	HTTPClient *http.Client
}

func NewRESTClient(params *RESTClientParams) *RESTClient {
	if params == nil {
		params = &RESTClientParams{}
	}

	c := &RESTClient{
		params: *params,
	}

	if c.params.APIURL == "" {
		c.params.APIURL = config.DefaultAPIURL
	}

	if c.params.DataURL == "" {
		c.params.DataURL = config.DefaultDataURL
	}

	if c.params.HTTPClient == nil {
		c.params.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return c
}

// request describes one API call for do: endpoint is relative to baseURL
// (which defaults to the trading API URL), params become the query string,
// and body, if non-nil, is sent as JSON.
type request struct {
	method   string
	baseURL  string
	endpoint string
	params   map[string]string
	body     interface{}
}

// do performs the request and returns the raw response body. Non-2xx
// responses come back as *APIError.
func (c *RESTClient) do(ctx context.Context, req request) (json.RawMessage, error) {
	method := req.method
	if method == "" {
		method = http.MethodGet
	}

	baseURL := req.baseURL
	if baseURL == "" {
		baseURL = c.params.APIURL
	}

	u, err := url.Parse(baseURL + "/" + req.endpoint)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if len(req.params) > 0 {
		q := u.Query()
		for k, v := range req.params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	var bodyReader io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, errors.Trace(err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, errors.Trace(err)
	}

	httpReq.Header.Set("User-Agent", fmt.Sprintf("alpaca-sdk-go@%s", version.Version))
	httpReq.Header.Set("APCA-API-KEY-ID", c.params.APIKey)
	httpReq.Header.Set("APCA-API-SECRET-KEY", c.params.SecretKey)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.params.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// Not all error bodies are JSON; keep the raw text when not.
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = string(data)
		}
		return nil, errors.Trace(apiErr)
	}

	return json.RawMessage(data), nil
}
