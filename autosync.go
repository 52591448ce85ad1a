package staymap

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
)

// Compile-time interface check to ensure proper implementation.
var _ AutoSyncer = (*client)(nil)

// AutoSyncFunc is the work run on every auto sync tick.
type AutoSyncFunc func(ctx context.Context, c Client) error

// AutoSyncer provides controls for automatic syncs.
type AutoSyncer interface {
	// AutoSyncOn begins automatic syncs
	AutoSyncOn() error

	// AutoSyncOff stops automatic syncs
	AutoSyncOff() error
}

// AutoSyncOn begins automatic syncs at the configured interval. Each tick
// runs with its own timeout; a failed tick is logged and the loop goes on.
func (c *client) AutoSyncOn() error {
	if c.options.autoSyncInterval <= 0 {
		return &errors.ValidationError{
			Field:   "autoSyncInterval",
			Value:   c.options.autoSyncInterval,
			Message: "sync interval must be positive",
		}
	}

	// Stop any existing auto syncs to prevent resource leaks
	if err := c.AutoSyncOff(); err != nil {
		return err
	}

	// Recreate stopCh since it was closed in AutoSyncOff
	c.stopCh = make(chan struct{})
	c.syncTicker = time.NewTicker(c.options.autoSyncInterval)

	ctx, cancel := context.WithCancel(context.Background())
	c.syncCancel = cancel

	run := c.options.autoSyncFunc
	if run == nil {
		run = defaultAutoSync
	}

	go func(parentCtx context.Context, ticker *time.Ticker, stopCh chan struct{}) {
		for {
			select {
			case <-ticker.C:
				tickCtx, tickCancel := context.WithTimeout(parentCtx, constants.SyncTimeout)
				err := run(tickCtx, c)
				tickCancel()

				if err != nil {
					if parentCtx.Err() != nil {
						return
					}
					if stderrors.Is(err, context.Canceled) {
						return
					}
					logging.Error().Err(err).Msg("Auto-sync failed")
				}
			case <-parentCtx.Done():
				return
			case <-stopCh:
				return
			}
		}
	}(ctx, c.syncTicker, c.stopCh)

	return nil
}

// AutoSyncOff stops automatic syncs.
func (c *client) AutoSyncOff() error {
	if c.syncTicker != nil {
		c.syncTicker.Stop()
		c.syncTicker = nil
	}
	if c.syncCancel != nil {
		c.syncCancel()
		c.syncCancel = nil
	}
	select {
	case <-c.stopCh:
		// Already closed
	default:
		close(c.stopCh)
	}
	return nil
}

func defaultAutoSync(ctx context.Context, c Client) error {
	_, err := c.Sync(ctx)
	return err
}
