// Package connector drives the popup-based OAuth flow that links a workspace
// to a third-party CRM account.
//
// # Flow
//
// InitiateConnection asks the backend for an authorization URL and opens it
// in a popup window. Nothing else happens until the user closes that window;
// the popup monitor then calls back and the connector exchanges the
// (user, organization) pair for credentials. Valid credentials are merged
// into the shared integration params together with the integration type, and
// VerifyConnection immediately fetches the items the credentials can see.
//
//	             InitiateConnection
//	Disconnected ──────────────────▶ Connecting
//	     ▲                                │ url received, popup open
//	     │ Disconnect                     ▼
//	     │                        AwaitingWindowClose
//	     │                                │ window closed
//	     │                                ▼
//	     │                        ExchangingCredentials
//	     │              valid creds ╱            ╲ error / empty creds
//	     │                         ▼              ▼
//	     └──────────────────── Connected        Errored ──▶ Connecting (retry)
//
// A failure before the popup opens (missing URL, blocked popup, network
// error) leaves the state at Disconnected with the error recorded. A failed
// item fetch after connecting leaves the state at Connected and records a
// *VerificationWarning.
//
// # Derived State
//
// Connected, Disconnected and Errored are not stored. They are derived from
// the integration params (valid credentials mean Connected) and from whether
// the last exchange failed. The host may replace the params at any time and
// Status will follow.
//
// # Cancellation
//
// Every attempt carries an ID and a generation number. Disconnect and Close
// bump the generation and cancel the attempt context, so results that arrive
// afterwards are dropped instead of resurrecting a connection the user has
// already abandoned.
//
// # Observing Changes
//
// Options.OnChange receives a Status after every transition. It is called
// without the connector's lock held and may call Status itself, but it must
// not block for long since it runs on the goroutine that made the change.
package connector
