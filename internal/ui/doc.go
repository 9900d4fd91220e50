// Package ui provides the terminal widget for hublink.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds a Connection (normally a
// *connector.Connector) and renders a single integration card in the manner
// of a web settings page: title, error and warning alerts, the connect button,
// an item-count chip, a per-type summary and the token details.
//
// # Package Structure
//
//   - app.go: Model, Init/Update/View, messages, commands and Run
//   - widget.go: the integration card, button label and colour rules
//   - header.go: the top status bar
//   - form.go: the Modal interface and the user/org identity form
//   - logs.go: optional pane tailing hublink's own log file
//   - help.go, keys.go: key bindings and the help overlay
//   - theme.go, style_helpers.go: palettes and background-safe rendering
//
// # Refresh Model
//
// Status is pulled from the connector on every poll tick, the same way the
// tick reads the params snapshot. When Options.Changes is set, transitions
// pushed by the connector's OnChange hook are applied between ticks as well.
//
// # Keyboard
//
//   - enter/c: Connect, or disconnect while connected (ignored while busy)
//   - d: Disconnect
//   - r: Reload items for the current credentials
//   - u: Edit the user and organization identifiers
//   - l: Toggle the log pane
//   - T: Cycle theme (saved to prefs)
//   - h/?: Help
//   - q/ctrl+c: Quit
package ui
