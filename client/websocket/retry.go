package websocket

import (
	"context"
	"time"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"
)

// RetryOpts governs how Retry waits between attempts.
type RetryOpts struct {
	// Backoff enables linear growth of the wait between consecutive failed
	// attempts, up to MaxTimeout. When false, Timeout is used as a constant
	// wait instead.
	Backoff bool

	// Timeout is the initial (or, with Backoff disabled, constant) wait
	// before the next attempt. A constant wait shorter than a second is
	// clamped to one second.
	Timeout time.Duration

	// MaxTimeout caps the backed-off wait.
	MaxTimeout time.Duration
}

// DefaultRetryOpts backs off from zero, adding backoffIncrement per failure,
// up to 30 seconds.
var DefaultRetryOpts = RetryOpts{
	Backoff:    true,
	Timeout:    0,
	MaxTimeout: 30 * time.Second,
}

const backoffIncrement = 500 * time.Millisecond

// Retry runs fn until ctx is canceled, waiting per opts between attempts.
// An attempt that ran for at least a minute resets the backoff, so a feed
// that stays up for a while doesn't pay for long-gone failures. Retry only
// returns once ctx is done, with ctx.Err().
func Retry(ctx context.Context, opts RetryOpts, logger log.FieldLogger, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = log.StandardLogger()
	}

	timeout := opts.Timeout

	if !opts.Backoff && timeout < 1*time.Second {
		// Prevent busy-looping on a connection which fails instantly.
		timeout = 1 * time.Second
	}

	for {
		started := time.Now()
		err := fn(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Trace(ctxErr)
		}

		if time.Since(started) >= 1*time.Minute {
			timeout = opts.Timeout
		}

		logger.WithError(err).WithField("wait", timeout).Info("session ended, retrying")

		select {
		case <-ctx.Done():
			return errors.Trace(ctx.Err())
		case <-time.After(timeout):
		}

		if opts.Backoff {
			timeout += backoffIncrement
			if timeout > opts.MaxTimeout {
				timeout = opts.MaxTimeout
			}
		}
	}
}
