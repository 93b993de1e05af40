package internal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
)

var (
	ErrNotConnected = errors.New("transport error: not connected")
)

// TransportParams contains params for opening a stream connection (see
// Transport).
type TransportParams struct {
	// Server URL, e.g. wss://stream.data.alpaca.markets/v2/iex
	URL string

	// RequestHeader is passed to the websocket upgrade request; used for
	// API-key authentication on endpoints which take it out of band.
	RequestHeader http.Header
}

// Transport owns a single websocket connection: it's dialed once, delivers
// inbound messages until the connection dies, and then reports the terminal
// error. There is deliberately no reconnection here; a session that wants to
// come back opens a new Transport.
type Transport struct {
	params TransportParams

	wsConn *websocket.Conn

	connTx chan websocketTx
	frames chan Frame

	// done is closed when the read loop exits; readErr is valid after that.
	done    chan struct{}
	readErr error

	// closing is closed by Close, to unblock the read loop in case the
	// consumer has stopped draining frames.
	closing chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Frame is one inbound websocket message.
type Frame struct {
	MessageType int
	Data        []byte
}

// IsText reports whether the frame is a text message.
func (f Frame) IsText() bool {
	return f.MessageType == websocket.TextMessage
}

// websocketTx represents message to send to the websocket
type websocketTx struct {
	messageType int
	data        []byte
	res         chan error
}

// Dial opens a websocket connection to params.URL. The returned Transport is
// already receiving: consume Frames until it's closed, then check Err.
func Dial(ctx context.Context, params *TransportParams) (*Transport, error) {
	wsConn, resp, err := websocket.DefaultDialer.DialContext(ctx, params.URL, params.RequestHeader)
	if err != nil {
		if resp != nil {
			return nil, errors.Annotatef(err, "dialing %s (status %s)", params.URL, resp.Status)
		}
		return nil, errors.Annotatef(err, "dialing %s", params.URL)
	}

	t := &Transport{
		// Copy params defensively
		params: *params,

		wsConn:  wsConn,
		connTx:  make(chan websocketTx, 1),
		frames:  make(chan Frame, 8),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}

	go t.writeLoop()
	go t.readLoop()

	return t, nil
}

// URL returns an url used for connection
func (t *Transport) URL() string {
	return t.params.URL
}

// Frames returns the channel of inbound messages. It is closed when the
// connection dies or is closed; Err reports the cause afterwards.
func (t *Transport) Frames() <-chan Frame {
	return t.frames
}

// Err returns the error which terminated the read loop. It must only be
// called after Frames has been closed.
func (t *Transport) Err() error {
	<-t.done
	return t.readErr
}

// Send sends a text message to the websocket if it's connected
func (t *Transport) Send(ctx context.Context, data []byte) error {
	res := make(chan error, 1)

	select {
	case t.connTx <- websocketTx{
		messageType: websocket.TextMessage,
		data:        data,
		res:         res,
	}:
	case <-t.done:
		return errors.Trace(ErrNotConnected)
	case <-ctx.Done():
		return errors.Trace(ctx.Err())
	}

	select {
	case err := <-res:
		if err != nil {
			return errors.Annotatef(err, "sending msg")
		}
	case <-ctx.Done():
		return errors.Trace(ctx.Err())
	}

	return nil
}

// Close performs a graceful websocket closure (code 1000), falling back to
// the forceful one, and then tears the connection down. It unblocks the read
// loop promptly, so Frames will be closed shortly after. Safe to call more
// than once and from any goroutine.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closing)

		data := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := t.wsConn.WriteControl(websocket.CloseMessage, data, time.Now().Add(time.Second)); err != nil {
			t.closeErr = errors.Trace(t.wsConn.Close())
			return
		}

		t.closeErr = errors.Trace(t.wsConn.Close())
	})

	return t.closeErr
}

// readLoop keeps receiving all websocket messages and delivers them to the
// frames channel until the connection is closed.
func (t *Transport) readLoop() {
	defer func() {
		close(t.frames)
		close(t.done)
	}()

	for {
		msgType, data, err := t.wsConn.ReadMessage()
		if err != nil {
			t.readErr = err
			return
		}

		switch msgType {
		case websocket.TextMessage, websocket.BinaryMessage:
			select {
			case t.frames <- Frame{MessageType: msgType, Data: data}:
			case <-t.closing:
				t.readErr = errors.Trace(ErrNotConnected)
				return
			}
		}
	}
}

// writeLoop receives messages from t.connTx, and tries to send them
// to the websocket connection.
func (t *Transport) writeLoop() {
	for {
		select {
		case msg := <-t.connTx:
			msg.res <- errors.Trace(t.wsConn.WriteMessage(msg.messageType, msg.data))
		case <-t.done:
			return
		}
	}
}
