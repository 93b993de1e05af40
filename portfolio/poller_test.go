package portfolio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpacaconnect/alpaca-sdk-go/common"
)

// mockSource implements AccountSource with injectable behavior per call.
type mockSource struct {
	mu sync.Mutex

	getAccount    func(ctx context.Context) (common.Account, error)
	getPositions  func(ctx context.Context) ([]common.Position, error)
	getOpenOrders func(ctx context.Context) ([]common.Order, error)

	calls int
}

func (m *mockSource) countCall() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
}

func (m *mockSource) GetAccount(ctx context.Context) (common.Account, error) {
	m.countCall()
	return m.getAccount(ctx)
}

func (m *mockSource) GetPositions(ctx context.Context) ([]common.Position, error) {
	m.countCall()
	return m.getPositions(ctx)
}

func (m *mockSource) GetOpenOrders(ctx context.Context) ([]common.Order, error) {
	m.countCall()
	return m.getOpenOrders(ctx)
}

func healthySource() *mockSource {
	return &mockSource{
		getAccount: func(ctx context.Context) (common.Account, error) {
			return common.Account{ID: "acct-1", Cash: decimal.RequireFromString("4000.32")}, nil
		},
		getPositions: func(ctx context.Context) ([]common.Position, error) {
			return []common.Position{{Symbol: "AAPL"}}, nil
		},
		getOpenOrders: func(ctx context.Context) ([]common.Order, error) {
			return []common.Order{{ID: "order-1"}}, nil
		},
	}
}

func TestCaptureFetchesConcurrently(t *testing.T) {
	// Each fetch sleeps 100ms; a concurrent capture takes ~100ms, a
	// sequential one 300ms.
	delay := 100 * time.Millisecond

	src := healthySource()
	slow := func(ctx context.Context) ([]common.Position, error) {
		time.Sleep(delay)
		return []common.Position{}, nil
	}
	src.getPositions = slow
	src.getAccount = func(ctx context.Context) (common.Account, error) {
		time.Sleep(delay)
		return common.Account{}, nil
	}
	src.getOpenOrders = func(ctx context.Context) ([]common.Order, error) {
		time.Sleep(delay)
		return []common.Order{}, nil
	}

	p := NewPoller(PollerParams{Source: src})

	started := time.Now()
	snapshot := p.capture(context.Background())
	elapsed := time.Since(started)

	require.NotNil(t, snapshot.Account)
	assert.Less(t, elapsed, 2*delay, "fetches don't seem to run concurrently")
}

func TestCaptureDegradesOnError(t *testing.T) {
	src := healthySource()
	src.getPositions = func(ctx context.Context) ([]common.Position, error) {
		return nil, errors.New("server is down")
	}

	p := NewPoller(PollerParams{Source: src})
	snapshot := p.capture(context.Background())

	// Only the failed field is nil.
	require.NotNil(t, snapshot.Account)
	assert.Equal(t, "acct-1", snapshot.Account.ID)
	assert.Nil(t, snapshot.Positions)
	require.Len(t, snapshot.OpenOrders, 1)
	assert.False(t, snapshot.CapturedAt.IsZero())
}

func TestCaptureRecoversFromPanic(t *testing.T) {
	src := healthySource()
	src.getOpenOrders = func(ctx context.Context) ([]common.Order, error) {
		panic("broken source")
	}

	p := NewPoller(PollerParams{Source: src})
	snapshot := p.capture(context.Background())

	assert.Nil(t, snapshot.Account)
	assert.Nil(t, snapshot.Positions)
	assert.Nil(t, snapshot.OpenOrders)
	assert.False(t, snapshot.CapturedAt.IsZero())
}

func TestPollCadence(t *testing.T) {
	mockClock := clock.NewMock()

	src := healthySource()
	p := NewPoller(PollerParams{
		Source:   src,
		Interval: 10 * time.Second,
		Clock:    mockClock,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := p.Poll(ctx)

	recvSnapshot := func() Snapshot {
		select {
		case s, ok := <-out:
			require.True(t, ok, "snapshot channel closed early")
			return s
		case <-time.After(1 * time.Second):
			t.Fatal("no snapshot in time")
		}
		return Snapshot{}
	}

	// The first snapshot arrives immediately, without any clock advance.
	first := recvSnapshot()
	require.NotNil(t, first.Account)

	// The next one only after the interval has passed.
	select {
	case <-out:
		t.Fatal("snapshot arrived before the interval elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	mockClock.Add(10 * time.Second)
	second := recvSnapshot()
	require.NotNil(t, second.Account)

	cancel()

	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(1 * time.Second):
		t.Fatal("snapshot channel wasn't closed after cancel")
	}
}
