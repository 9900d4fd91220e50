// Package config loads hublink's configuration.
//
// # Configuration Discovery
//
// Load resolves configuration in layers, later layers winning:
//
//  1. Built-in defaults (see Default)
//  2. An optional .env file in the working directory, loaded into the
//     process environment without overriding variables already set
//  3. The TOML file at the given path, or ~/.config/hublink/config.toml
//  4. HUBLINK_* environment variables
//
// A missing config file is not an error. Empty values at any layer leave the
// previous layer's value in place.
//
// # Default Values
//
//   - Backend URL: http://localhost:8000
//   - Provider: hubspot (display name "HubSpot")
//   - Poll interval: 1s
//   - Popup size: 600x700
//   - Log file: ~/.local/state/hublink/hublink.log
//
// Backend call timeouts default to the client's own budgets (10s, 10s, 30s).
//
// # TOML Format
//
//	backend_url = "http://localhost:8000"
//	provider = "hubspot"
//	display_name = "HubSpot"
//	user_id = "TestUser"
//	org_id = "TestOrg"
//	poll_interval = "1s"
//	log_path = "~/.local/state/hublink/hublink.log"
//
//	[timeouts]
//	authorize = "10s"
//	credentials = "10s"
//	items = "30s"
//
//	[popup]
//	command = "chromium"
//	args = ["--app={url}", "--window-size={width},{height}", "--user-data-dir={profile}"]
//	width = 600
//	height = 700
//
//	[telemetry]
//	posthog_api_key = ""
//	endpoint = "https://eu.i.posthog.com"
//
// Durations use Go syntax ("500ms", "1s", "2m"). An unparsable or
// non-positive duration is an error.
//
// # Environment Overrides
//
//   - HUBLINK_BACKEND_URL
//   - HUBLINK_USER_ID, HUBLINK_ORG_ID
//   - HUBLINK_POLL_INTERVAL (Go duration)
//   - HUBLINK_BROWSER (popup command)
//   - HUBLINK_POSTHOG_API_KEY
//   - HUBLINK_LOG_PATH
//
// # Path Expansion
//
// The config path and log_path accept a leading ~ and are made absolute.
package config
