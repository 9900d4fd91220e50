package app

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/five82/hublink/internal/config"
	"github.com/five82/hublink/internal/connector"
	"github.com/five82/hublink/internal/logging"
	"github.com/five82/hublink/internal/prefs"
)

const maxPrintedItems = 10

// Connect runs a single authorization attempt without the TUI. It opens the
// consent window, waits until the attempt has either failed or fetched the
// items, and prints a summary to opts.Stdout. A failed exchange or item fetch
// is returned as an error.
func Connect(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.BootstrapFromEnv(logging.BootstrapOptions{
		Command: "connect",
		Writer:  opts.stderr(),
	})
	if err != nil {
		return err
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, _ := prefs.Load(prefsPath)

	done := make(chan connector.Status, 1)
	s, err := newSession(cfg, opts, logger, func(st connector.Status) {
		if !attemptFinished(st) {
			return
		}
		select {
		case done <- st:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer s.close()

	user, org := identity(opts, cfg, userPrefs)
	out := opts.stdout()
	name := s.conn.DisplayName()

	if err := s.conn.InitiateConnection(ctx, user, org); err != nil {
		return err
	}
	fmt.Fprintf(out, "Opened the %s authorization window. Close it once access is granted.\n", name)

	var st connector.Status
	select {
	case <-ctx.Done():
		return ctx.Err()
	case st = <-done:
	}

	if st.State == connector.Errored {
		return st.Error
	}

	if err := prefs.Save(prefsPath, userPrefs.WithIdentity(user, org)); err != nil {
		logger.Warn("save prefs failed", "path", prefsPath, "error", err)
	}

	writeSummary(out, name, st, time.Now())
	if st.Warning != nil {
		return st.Warning
	}
	return nil
}

// attemptFinished reports whether st ends a headless attempt: the exchange
// failed, or credentials were stored and the item fetch has completed.
func attemptFinished(st connector.Status) bool {
	switch {
	case st.State == connector.Errored:
		return true
	case st.State == connector.Connected && !st.Verifying:
		return st.ItemCount != nil || st.Warning != nil
	default:
		return false
	}
}

func writeSummary(out io.Writer, name string, st connector.Status, now time.Time) {
	fmt.Fprintf(out, "%s connected.\n", name)
	if tok := st.Token; tok != nil {
		expiry := "no expiry"
		if !tok.Expiry.IsZero() {
			expiry = "expires " + tok.Expiry.Local().Format(time.RFC3339)
			if !tok.Expiry.After(now) {
				expiry = "expired " + tok.Expiry.Local().Format(time.RFC3339)
			}
		}
		fmt.Fprintf(out, "Token: %s, %s\n", tok.Type(), expiry)
	}
	if st.ItemCount == nil {
		return
	}

	fmt.Fprintf(out, "%d items loaded\n", *st.ItemCount)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, tc := range st.Summary {
		fmt.Fprintf(tw, "  %s\t%d\n", tc.Type, tc.Count)
	}
	_ = tw.Flush()

	if len(st.Items) == 0 {
		return
	}
	shown := st.Items
	if len(shown) > maxPrintedItems {
		shown = shown[:maxPrintedItems]
	}
	fmt.Fprintf(out, "First %d items:\n", len(shown))
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, item := range shown {
		label := item.Name
		if label == "" {
			label = item.ParentPathOrName
		}
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", item.Type, item.ID, label)
	}
	_ = tw.Flush()
}
