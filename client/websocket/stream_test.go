package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpacaconnect/alpaca-sdk-go/common"
)

const (
	testAPIKey    = "test-api-key"
	testSecretKey = "test-secret-key"
)

type eventType int

const (
	eventTypeConnOpened eventType = iota
	eventTypeMsg
)

// websocketEvent represents an event like new opened connection or new
// received websocket message
type websocketEvent struct {
	eventType eventType

	// The fields below are only relevant if eventType is eventTypeMsg
	messageType int
	data        []byte
	err         error
}

// serverTx is a message for the test server to deliver to the client.
type serverTx struct {
	messageType int
	data        []byte
}

type testServerParams struct {
	rx chan websocketEvent
	tx chan serverTx

	// headers of the most recent upgrade request.
	headers chan http.Header

	url string
}

func withTestServer(t *testing.T, cb func(tp *testServerParams) error) error {
	// tx and rx are channels to communicate raw websocket messages with the
	// test server: everything received by the server will be delivered to rx,
	// and everything sent to tx will be sent by the server to the client.
	tp := &testServerParams{
		rx:      make(chan websocketEvent, 128),
		tx:      make(chan serverTx, 128),
		headers: make(chan http.Header, 1),
	}

	ts := httptest.NewServer(http.HandlerFunc(getStreamHandler(t, tp)))
	defer ts.Close()

	// Replace the scheme in url to "ws"
	u, err := url.Parse(ts.URL)
	if err != nil {
		return errors.Trace(err)
	}
	u.Scheme = "ws"
	tp.url = u.String()

	return errors.Trace(cb(tp))
}

// getStreamHandler returns an http handler which upgrades the connection to
// websocket, forwards events (opened connections and received messages) to
// the rx channel, and forwards messages from the tx channel to websocket.
//
// NOTE that only one connection should be opened at a time, since currently
// there's no way to receive/send stuff from/to a particular connection in
// case there are many.
func getStreamHandler(t *testing.T, tp *testServerParams) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		tp.headers <- r.Header.Clone()

		upgrader := websocket.Upgrader{}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		defer ws.Close()

		tp.rx <- websocketEvent{
			eventType: eventTypeConnOpened,
		}

		go func() {
			for {
				mt, message, err := ws.ReadMessage()
				t.Logf("websocket rx: type=%d, data=%s, err=%v", mt, message, err)

				tp.rx <- websocketEvent{
					eventType: eventTypeMsg,

					messageType: mt,
					data:        message,
					err:         err,
				}

				if err != nil {
					// Signal tx loop to exit as well
					cancel()
					break
				}
			}
		}()

	txLoop:
		for {
			select {
			case msg := <-tp.tx:
				t.Logf("websocket tx: type=%d, data=%s", msg.messageType, msg.data)

				if err := ws.WriteMessage(msg.messageType, msg.data); err != nil {
					t.Logf("error writing to websocket: %s", err)
					break txLoop
				}
			case <-ctx.Done():
				break txLoop
			}
		}
	}
}

// waitConnOpened waits until the test server has accepted a connection.
func waitConnOpened(t *testing.T, tp *testServerParams) {
	select {
	case ev := <-tp.rx:
		require.Equal(t, eventTypeConnOpened, ev.eventType)
	case <-time.After(1 * time.Second):
		t.Fatal("connection wasn't opened in time")
	}
}

// recvClientMsg waits for the next text message received by the server.
func recvClientMsg(t *testing.T, tp *testServerParams) []byte {
	select {
	case ev := <-tp.rx:
		require.Equal(t, eventTypeMsg, ev.eventType)
		require.NoError(t, ev.err)
		require.Equal(t, websocket.TextMessage, ev.messageType)
		return ev.data
	case <-time.After(1 * time.Second):
		t.Fatal("no message from client in time")
	}
	return nil
}

func recvBatch(t *testing.T, updates <-chan []common.StreamUpdate) []common.StreamUpdate {
	select {
	case batch, ok := <-updates:
		require.True(t, ok, "updates channel closed early")
		return batch
	case <-time.After(1 * time.Second):
		t.Fatal("no update batch in time")
	}
	return nil
}

func TestAccountStreamHandshake(t *testing.T) {
	err := withTestServer(t, func(tp *testServerParams) error {
		client, err := NewAccountStreamClient(&WSParams{
			URL:       tp.url,
			APIKey:    testAPIKey,
			SecretKey: testSecretKey,
		})
		if err != nil {
			return errors.Trace(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		updates, errc := client.Listen(ctx)

		waitConnOpened(t, tp)

		// Auth and listen are pipelined, so both arrive without any server
		// response in between.
		assert.JSONEq(t,
			`{"action":"auth","key":"test-api-key","secret":"test-secret-key"}`,
			string(recvClientMsg(t, tp)))
		assert.JSONEq(t,
			`{"action":"listen","data":{"streams":["trade_updates"]}}`,
			string(recvClientMsg(t, tp)))

		tp.tx <- serverTx{
			messageType: websocket.TextMessage,
			data:        []byte(`{"stream":"authorization","data":{"status":"authorized","action":"authenticate"}}`),
		}

		batch := recvBatch(t, updates)
		require.Len(t, batch, 1)
		require.NotNil(t, batch[0].ControlAck)
		assert.Equal(t, "authorized", batch[0].ControlAck.Status)

		tp.tx <- serverTx{
			messageType: websocket.TextMessage,
			data: []byte(`{
				"stream": "trade_updates",
				"data": {
					"event": "fill",
					"price": "191.25",
					"qty": "100",
					"order": {"id": "b6a2", "symbol": "AAPL", "status": "filled"}
				}
			}`),
		}

		batch = recvBatch(t, updates)
		require.Len(t, batch, 1)
		tu := batch[0].TradeUpdate
		require.NotNil(t, tu)
		assert.Equal(t, "fill", tu.Event)
		assert.Equal(t, "b6a2", tu.Order.ID)

		cancel()

		select {
		case err := <-errc:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(1 * time.Second):
			t.Fatal("session didn't end after cancel")
		}

		return nil
	})
	require.NoError(t, err)
}

func TestAccountStreamSkipsBadFrames(t *testing.T) {
	err := withTestServer(t, func(tp *testServerParams) error {
		client, err := NewAccountStreamClient(&WSParams{
			URL:       tp.url,
			APIKey:    testAPIKey,
			SecretKey: testSecretKey,
		})
		if err != nil {
			return errors.Trace(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		updates, _ := client.Listen(ctx)

		waitConnOpened(t, tp)
		recvClientMsg(t, tp)
		recvClientMsg(t, tp)

		// A binary frame and an undecodable text frame must not kill the
		// session; the following good frame still comes through.
		tp.tx <- serverTx{messageType: websocket.BinaryMessage, data: []byte{0x01, 0x02}}
		tp.tx <- serverTx{messageType: websocket.TextMessage, data: []byte(`{"what":"is this"}`)}
		tp.tx <- serverTx{
			messageType: websocket.TextMessage,
			data:        []byte(`{"stream":"listening","data":{"streams":["trade_updates"]}}`),
		}

		batch := recvBatch(t, updates)
		require.Len(t, batch, 1)
		require.NotNil(t, batch[0].ControlAck)
		assert.Equal(t, []string{"trade_updates"}, batch[0].ControlAck.Streams)

		return nil
	})
	require.NoError(t, err)
}

func TestMarketDataStreamSession(t *testing.T) {
	err := withTestServer(t, func(tp *testServerParams) error {
		client, err := NewMarketDataStreamClient(&MarketDataStreamParams{
			WSParams: WSParams{
				URL:       tp.url,
				APIKey:    testAPIKey,
				SecretKey: testSecretKey,
			},
			Symbols: []string{"AAPL", "MSFT"},
		})
		if err != nil {
			return errors.Trace(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		updates, errc := client.Listen(ctx)

		// Credentials ride on the upgrade request for this endpoint.
		select {
		case h := <-tp.headers:
			assert.Equal(t, testAPIKey, h.Get("APCA-API-KEY-ID"))
			assert.Equal(t, testSecretKey, h.Get("APCA-API-SECRET-KEY"))
		case <-time.After(1 * time.Second):
			t.Fatal("no upgrade request in time")
		}

		waitConnOpened(t, tp)

		assert.JSONEq(t,
			`{"action":"subscribe","trades":["AAPL","MSFT"],"quotes":["AAPL","MSFT"],"bars":["AAPL","MSFT"]}`,
			string(recvClientMsg(t, tp)))

		tp.tx <- serverTx{
			messageType: websocket.TextMessage,
			data: []byte(`[
				{"T":"t","S":"AAPL","p":"191.25","s":100,"t":"2024-01-05T15:04:05Z"},
				{"T":"q","S":"AAPL","bp":"191.20","bs":2,"ap":"191.30","as":3,"t":"2024-01-05T15:04:05Z"}
			]`),
		}

		batch := recvBatch(t, updates)
		require.Len(t, batch, 2)
		require.NotNil(t, batch[0].Trade)
		assert.Equal(t, "AAPL", batch[0].Trade.Symbol)
		require.NotNil(t, batch[1].Quote)
		assert.Equal(t, "AAPL", batch[1].Quote.Symbol)

		// Server-side close ends the session with a terminal error and a
		// closed updates channel.
		tp.tx <- serverTx{
			messageType: websocket.CloseMessage,
			data:        websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"),
		}

		select {
		case err := <-errc:
			require.Error(t, err)
		case <-time.After(1 * time.Second):
			t.Fatal("session didn't end after server close")
		}

		select {
		case _, ok := <-updates:
			assert.False(t, ok)
		case <-time.After(1 * time.Second):
			t.Fatal("updates channel wasn't closed")
		}

		return nil
	})
	require.NoError(t, err)
}

func TestStreamClientValidation(t *testing.T) {
	_, err := NewAccountStreamClient(&WSParams{})
	require.Error(t, err)

	_, err = NewMarketDataStreamClient(&MarketDataStreamParams{
		WSParams: WSParams{APIKey: "k", SecretKey: "s"},
	})
	require.Error(t, err)
}
