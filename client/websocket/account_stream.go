package websocket

import (
	"context"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"github.com/alpacaconnect/alpaca-sdk-go/common"
	"github.com/alpacaconnect/alpaca-sdk-go/config"
	"github.com/alpacaconnect/alpaca-sdk-go/internal"
)

// WSParams contains options for opening a stream session.
type WSParams struct {
	// APIKey and SecretKey are the credentials presented to the server.
	APIKey    string
	SecretKey string

	// URL is the base websocket address, without the endpoint path. If empty,
	// the production default is used.
	URL string

	// Logger receives session diagnostics. If nil, the standard logger is
	// used.
	Logger log.FieldLogger
}

const updatesBufferSize = 8

// AccountStreamClient delivers account activity (order fills, cancels,
// replaces) over the account stream endpoint.
//
// A client is one-shot: Listen owns exactly one connection, and when that
// connection dies the session is over. Wrap Listen with Retry to keep a feed
// up across disconnects.
type AccountStreamClient struct {
	params WSParams
	log    log.FieldLogger
}

// NewAccountStreamClient creates a new account stream client with the given
// params.
func NewAccountStreamClient(params *WSParams) (*AccountStreamClient, error) {
	p := *params

	if p.APIKey == "" || p.SecretKey == "" {
		return nil, errors.New("APIKey and SecretKey are required")
	}

	if p.URL == "" {
		p.URL = config.DefaultStreamURL
	}

	logger := p.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &AccountStreamClient{
		params: p,
		log:    logger.WithField("component", "account-stream"),
	}, nil
}

// Listen connects, authenticates, subscribes to trade updates, and then
// delivers decoded batches on the returned updates channel until the
// connection dies or ctx is canceled. When the session ends, the updates
// channel is closed and the terminal error is sent on the error channel;
// cancellation surfaces as ctx.Err().
func (c *AccountStreamClient) Listen(ctx context.Context) (<-chan []common.StreamUpdate, <-chan error) {
	updates := make(chan []common.StreamUpdate, updatesBufferSize)
	errc := make(chan error, 1)

	go func() {
		defer close(updates)
		errc <- c.run(ctx, updates)
	}()

	return updates, errc
}

func (c *AccountStreamClient) run(ctx context.Context, updates chan<- []common.StreamUpdate) error {
	url := c.params.URL + "/stream"

	c.log.WithField("url", url).Debug("connecting")

	tr, err := internal.Dial(ctx, &internal.TransportParams{URL: url})
	if err != nil {
		return errors.Trace(err)
	}
	defer tr.Close()

	// Unblock the read loop when the caller gives up.
	watcherDone := make(chan struct{})
	defer close(watcherDone)
	go func() {
		select {
		case <-ctx.Done():
			tr.Close()
		case <-watcherDone:
		}
	}()

	// The server processes requests in order, so auth and listen can be
	// pipelined without waiting for the auth ack.
	authReq := &streamRequest{
		Action: "auth",
		Key:    c.params.APIKey,
		Secret: c.params.SecretKey,
	}
	if err := sendRequest(ctx, tr, authReq); err != nil {
		return errors.Trace(err)
	}

	listenReq := &streamRequest{
		Action: "listen",
		Data:   &streamRequestData{Streams: []string{"trade_updates"}},
	}
	if err := sendRequest(ctx, tr, listenReq); err != nil {
		return errors.Trace(err)
	}

	if err := deliverFrames(ctx, c.log, tr, updates); err != nil {
		return errors.Trace(err)
	}

	return nil
}

// deliverFrames drains the transport, decoding each text frame and emitting
// the resulting batches, until the transport's frame channel is closed. A
// frame that fails to decode is logged and skipped; every other frame's
// batch is delivered whole and in order.
func deliverFrames(
	ctx context.Context, logger log.FieldLogger,
	tr *internal.Transport, updates chan<- []common.StreamUpdate,
) error {
	for frame := range tr.Frames() {
		if !frame.IsText() {
			logger.WithField("len", len(frame.Data)).Debug("ignoring non-text frame")
			continue
		}

		batch, err := decodeStreamBatch(frame.Data)
		if err != nil {
			logger.WithError(err).Warn("dropping undecodable frame")
			continue
		}

		if len(batch) == 0 {
			continue
		}

		select {
		case updates <- batch:
		case <-ctx.Done():
			return errors.Trace(ctx.Err())
		}
	}

	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}

	return errors.Trace(tr.Err())
}
