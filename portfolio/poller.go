// Package portfolio periodically assembles a point-in-time view of an
// account: its details, open positions and open orders.
package portfolio

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"

	"github.com/alpacaconnect/alpaca-sdk-go/common"
)

// DefaultInterval is the poll cadence used when PollerParams.Interval is
// zero.
const DefaultInterval = 10 * time.Second

// AccountSource is the read-only account API the poller depends on.
// *rest.RESTClient implements it.
type AccountSource interface {
	GetAccount(ctx context.Context) (common.Account, error)
	GetPositions(ctx context.Context) ([]common.Position, error)
	GetOpenOrders(ctx context.Context) ([]common.Order, error)
}

// Snapshot is one point-in-time view of the account. A field is nil when
// its fetch failed; CapturedAt is always set, and is taken after all three
// fetches have returned.
type Snapshot struct {
	Account    *common.Account
	Positions  []common.Position
	OpenOrders []common.Order

	CapturedAt time.Time
}

// PollerParams are used as options to create a new Poller.
type PollerParams struct {
	// Source is required.
	Source AccountSource

	// Interval between snapshot captures; DefaultInterval if zero.
	Interval time.Duration

	// Clock drives the interval; the wall clock if nil. Tests inject a mock.
	Clock clock.Clock

	Logger log.FieldLogger
}

// Poller repeatedly captures account snapshots. The three fetches of each
// snapshot run concurrently, and a failure of one of them degrades the
// snapshot instead of skipping it.
type Poller struct {
	source   AccountSource
	interval time.Duration
	clock    clock.Clock
	log      log.FieldLogger
}

// NewPoller creates a new Poller.
func NewPoller(params PollerParams) *Poller {
	if params.Source == nil {
		panic("Source is nil")
	}

	interval := params.Interval
	if interval == 0 {
		interval = DefaultInterval
	}

	cl := params.Clock
	if cl == nil {
		cl = clock.New()
	}

	logger := params.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &Poller{
		source:   params.Source,
		interval: interval,
		clock:    cl,
		log:      logger.WithField("component", "portfolio-poller"),
	}
}

// Poll captures a snapshot immediately and then once per interval, sending
// each on the returned channel, until ctx is canceled. The channel is
// closed when polling stops. A consumer which falls behind delays the next
// capture rather than losing snapshots.
func (p *Poller) Poll(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot)

	go func() {
		defer close(out)

		for {
			snapshot := p.capture(ctx)

			select {
			case out <- snapshot:
			case <-ctx.Done():
				return
			}

			select {
			case <-p.clock.After(p.interval):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// capture assembles one snapshot, fetching the account, positions and open
// orders concurrently. Each failed fetch leaves its field nil. A panic in
// any fetch degrades the whole snapshot to all-nil instead of taking the
// process down.
func (p *Poller) capture(ctx context.Context) Snapshot {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var snapshot Snapshot
	panicked := false

	var wg sync.WaitGroup
	fetch := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					p.log.Errorf("recovered from panic in %s fetch: %v", name, r)
					panicked = true
					cancel()
				}
			}()

			if err := fn(); err != nil {
				p.log.WithError(err).Warnf("%s fetch failed", name)
			}
		}()
	}

	fetch("account", func() error {
		account, err := p.source.GetAccount(ctx)
		if err != nil {
			return err
		}
		snapshot.Account = &account
		return nil
	})

	fetch("positions", func() error {
		positions, err := p.source.GetPositions(ctx)
		if err != nil {
			return err
		}
		snapshot.Positions = positions
		return nil
	})

	fetch("open orders", func() error {
		orders, err := p.source.GetOpenOrders(ctx)
		if err != nil {
			return err
		}
		snapshot.OpenOrders = orders
		return nil
	})

	wg.Wait()

	if panicked {
		snapshot = Snapshot{}
	}

	snapshot.CapturedAt = p.clock.Now()
	return snapshot
}
