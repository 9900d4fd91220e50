// Package app is the composition root for hublink.
//
// # Overview
//
// Both commands share one wiring step, newSession, which builds:
//
//	config.Load()              TOML file, .env and HUBLINK_* overrides
//	backend.NewClient()        authorize / credentials / items calls
//	popup.NewMonitor()         browser window plus close polling
//	telemetry.New()            PostHog reporter, or a no-op without a key
//	state.NewStore()           integration params shared with the host
//	connector.New()            the authorization state machine
//
// Run starts the TUI on top of that session. The TUI owns the terminal, so
// logs go to the configured log file, which the TUI's log pane tails.
//
// Connect is the headless variant: it starts one attempt, waits for the
// connector to report a finished state through its OnChange hook, then prints
// the item summary and the first items. Logs go to stderr.
//
// # Params Watcher
//
// StartParamsWatcher polls the params store revision. Whenever the revision
// changes (and once at start) it calls Resume, so credentials placed in the
// store by the host are verified without a new authorization:
//
//	┌──────────────────────────────────────┐
//	│ StartParamsWatcher() goroutine       │
//	│  ├─> store.Snapshot().Revision       │
//	│  └─> changed? conn.Resume(ctx)       │
//	└──────────────────────────────────────┘
//
// # Error Handling
//
// Configuration, logging and wiring failures are returned from Run and
// Connect. Failures inside an attempt are reported by the connector: the TUI
// displays them, and Connect returns them so the command exits non-zero.
package app
