package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/five82/hublink/internal/connector"
	"github.com/five82/hublink/internal/state"
)

const defaultWatchInterval = 2 * time.Second

// resumer is satisfied by *connector.Connector.
type resumer interface {
	Resume(ctx context.Context) error
}

// StartParamsWatcher launches a background goroutine that re-checks the
// connection whenever the shared params change, including once at start. The
// connector only fetches items when it holds credentials without a known item
// count, so most checks are no-ops. It returns immediately.
func StartParamsWatcher(ctx context.Context, store *state.Store, conn resumer, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last uint64
		checked := false
		for {
			if rev := store.Snapshot().Revision; !checked || rev != last {
				checked, last = true, rev
				resume(ctx, conn, logger)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func resume(ctx context.Context, conn resumer, logger *slog.Logger) {
	err := conn.Resume(ctx)
	switch {
	case err == nil, errors.Is(err, connector.ErrClosed), errors.Is(err, connector.ErrAttemptCancelled):
		return
	case ctx.Err() != nil:
		return
	}
	logger.Warn("resume failed", "error", err)
}
