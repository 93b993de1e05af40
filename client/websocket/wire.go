package websocket

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/juju/errors"

	"github.com/alpacaconnect/alpaca-sdk-go/common"
	"github.com/alpacaconnect/alpaca-sdk-go/internal"
)

// streamRequest is the client-to-server message shape shared by both stream
// endpoints. Which fields are set depends on the action; everything is
// omitempty so the encoded form carries only what the action needs.
type streamRequest struct {
	Action string `json:"action"`

	// Account stream authentication.
	Key    string `json:"key,omitempty"`
	Secret string `json:"secret,omitempty"`

	// Account stream channel selection.
	Data *streamRequestData `json:"data,omitempty"`

	// Market data stream subscription.
	Trades []string `json:"trades,omitempty"`
	Quotes []string `json:"quotes,omitempty"`
	Bars   []string `json:"bars,omitempty"`
}

type streamRequestData struct {
	Streams []string `json:"streams"`
}

// sendRequest encodes req and sends it as a single text frame.
func sendRequest(ctx context.Context, tr *internal.Transport, req *streamRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return errors.Trace(err)
	}

	if err := tr.Send(ctx, data); err != nil {
		return errors.Trace(err)
	}

	return nil
}

// streamElemProbe holds just enough of an inbound element to classify it.
// The full element is re-decoded into the concrete type once classified.
type streamElemProbe struct {
	T      string `json:"T"`
	Stream string `json:"stream"`
	Code   int    `json:"code"`
	Msg    string `json:"msg"`

	Event string          `json:"event"`
	Order json.RawMessage `json:"order"`

	Data json.RawMessage `json:"data"`

	// Absorbs the lowercase timestamp key: encoding/json falls back to
	// case-insensitive matching, and without an exact "t" home the
	// timestamp would land in T and clobber the discriminator.
	Timestamp json.RawMessage `json:"t"`
}

// decodeStreamBatch decodes one inbound text frame into stream updates,
// preserving server order. Both endpoints frame messages as a JSON array of
// heterogeneous objects; the account stream additionally sends single
// objects, which are treated as one-element batches.
//
// Decoding is all-or-nothing: any unrecognized element fails the whole
// frame, so a caller never sees a partial batch.
func decodeStreamBatch(data []byte) ([]common.StreamUpdate, error) {
	data = bytes.TrimSpace(data)

	var elems []json.RawMessage

	if len(data) > 0 && data[0] == '{' {
		elems = []json.RawMessage{json.RawMessage(data)}
	} else if err := json.Unmarshal(data, &elems); err != nil {
		return nil, errors.Annotatef(err, "decoding stream frame")
	}

	updates := make([]common.StreamUpdate, 0, len(elems))
	for _, elem := range elems {
		u, err := decodeStreamElem(elem)
		if err != nil {
			return nil, errors.Trace(err)
		}

		updates = append(updates, u)
	}

	return updates, nil
}

func decodeStreamElem(data json.RawMessage) (common.StreamUpdate, error) {
	var probe streamElemProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return common.StreamUpdate{}, errors.Annotatef(err, "decoding stream element")
	}

	switch {
	case probe.T == "error" || (probe.T == "" && probe.Stream == "" && probe.Code != 0):
		var v common.ControlError
		if err := json.Unmarshal(data, &v); err != nil {
			return common.StreamUpdate{}, errors.Trace(err)
		}
		return common.StreamUpdate{ControlError: &v}, nil

	case probe.T == "success" || probe.T == "subscription":
		var v common.ControlAck
		if err := json.Unmarshal(data, &v); err != nil {
			return common.StreamUpdate{}, errors.Trace(err)
		}
		return common.StreamUpdate{ControlAck: &v}, nil

	case probe.T == "t":
		var v common.Trade
		if err := json.Unmarshal(data, &v); err != nil {
			return common.StreamUpdate{}, errors.Trace(err)
		}
		return common.StreamUpdate{Trade: &v}, nil

	case probe.T == "q":
		var v common.Quote
		if err := json.Unmarshal(data, &v); err != nil {
			return common.StreamUpdate{}, errors.Trace(err)
		}
		return common.StreamUpdate{Quote: &v}, nil

	case probe.T == "b":
		var v common.Bar
		if err := json.Unmarshal(data, &v); err != nil {
			return common.StreamUpdate{}, errors.Trace(err)
		}
		return common.StreamUpdate{Bar: &v}, nil

	case probe.Stream == "authorization" || probe.Stream == "listening":
		var env struct {
			Stream string            `json:"stream"`
			Data   common.ControlAck `json:"data"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return common.StreamUpdate{}, errors.Trace(err)
		}
		env.Data.Stream = env.Stream
		return common.StreamUpdate{ControlAck: &env.Data}, nil

	case probe.Stream == "trade_updates":
		var env struct {
			Data common.TradeUpdate `json:"data"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return common.StreamUpdate{}, errors.Trace(err)
		}
		return common.StreamUpdate{TradeUpdate: &env.Data}, nil

	case probe.Event != "" && len(probe.Order) > 0:
		// Bare trade update, no stream envelope.
		var v common.TradeUpdate
		if err := json.Unmarshal(data, &v); err != nil {
			return common.StreamUpdate{}, errors.Trace(err)
		}
		return common.StreamUpdate{TradeUpdate: &v}, nil
	}

	return common.StreamUpdate{}, errors.Errorf("unrecognized stream element: %s", string(data))
}
