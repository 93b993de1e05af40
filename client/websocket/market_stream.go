package websocket

import (
	"context"
	"net/http"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"github.com/alpacaconnect/alpaca-sdk-go/common"
	"github.com/alpacaconnect/alpaca-sdk-go/config"
	"github.com/alpacaconnect/alpaca-sdk-go/internal"
)

// DefaultFeed is the market data feed used when none is given.
const DefaultFeed = "iex"

// MarketDataStreamParams contains options for opening a market data stream
// session.
type MarketDataStreamParams struct {
	WSParams

	// Symbols to subscribe to. The same set is requested for trades, quotes
	// and bars.
	Symbols []string

	// Feed selects the data feed endpoint; defaults to DefaultFeed.
	Feed string
}

// MarketDataStreamClient delivers live trades, quotes and minute bars for a
// set of symbols.
//
// Like AccountStreamClient, a client is one-shot: Listen owns one connection
// and ends with it. Wrap Listen with Retry to keep a feed up across
// disconnects.
type MarketDataStreamClient struct {
	params MarketDataStreamParams
	log    log.FieldLogger
}

// NewMarketDataStreamClient creates a new market data stream client with the
// given params.
func NewMarketDataStreamClient(params *MarketDataStreamParams) (*MarketDataStreamClient, error) {
	p := *params
	p.Symbols = append([]string{}, params.Symbols...)

	if p.APIKey == "" || p.SecretKey == "" {
		return nil, errors.New("APIKey and SecretKey are required")
	}

	if len(p.Symbols) == 0 {
		return nil, errors.New("at least one symbol is required")
	}

	if p.URL == "" {
		p.URL = config.DefaultMarketDataStreamURL
	}

	if p.Feed == "" {
		p.Feed = DefaultFeed
	}

	logger := p.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &MarketDataStreamClient{
		params: p,
		log:    logger.WithField("component", "market-data-stream"),
	}, nil
}

// Listen connects, subscribes to the configured symbols, and delivers
// decoded batches on the returned updates channel until the connection dies
// or ctx is canceled. All update kinds are passed through, control acks and
// in-band errors included; filtering is up to the caller. When the session
// ends, the updates channel is closed and the terminal error is sent on the
// error channel.
func (c *MarketDataStreamClient) Listen(ctx context.Context) (<-chan []common.StreamUpdate, <-chan error) {
	updates := make(chan []common.StreamUpdate, updatesBufferSize)
	errc := make(chan error, 1)

	go func() {
		defer close(updates)
		errc <- c.run(ctx, updates)
	}()

	return updates, errc
}

func (c *MarketDataStreamClient) run(ctx context.Context, updates chan<- []common.StreamUpdate) error {
	url := c.params.URL + "/v2/" + c.params.Feed

	c.log.WithField("url", url).Debug("connecting")

	// This endpoint authenticates on the upgrade request itself.
	header := http.Header{}
	header.Set("APCA-API-KEY-ID", c.params.APIKey)
	header.Set("APCA-API-SECRET-KEY", c.params.SecretKey)

	tr, err := internal.Dial(ctx, &internal.TransportParams{
		URL:           url,
		RequestHeader: header,
	})
	if err != nil {
		return errors.Trace(err)
	}
	defer tr.Close()

	watcherDone := make(chan struct{})
	defer close(watcherDone)
	go func() {
		select {
		case <-ctx.Done():
			tr.Close()
		case <-watcherDone:
		}
	}()

	subReq := &streamRequest{
		Action: "subscribe",
		Trades: c.params.Symbols,
		Quotes: c.params.Symbols,
		Bars:   c.params.Symbols,
	}
	if err := sendRequest(ctx, tr, subReq); err != nil {
		return errors.Trace(err)
	}

	if err := deliverFrames(ctx, c.log, tr, updates); err != nil {
		return errors.Trace(err)
	}

	return nil
}
