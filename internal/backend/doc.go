// Package backend provides an HTTP client for the integrations backend.
//
// # Overview
//
// The integrations backend owns the OAuth client secret and the provider
// callback. This package only ever talks to the backend, never to the
// provider: it asks for a consent URL, later collects the credentials the
// backend stored after the provider redirected back, and uses those
// credentials to list the items the integration can see.
//
// # Architecture
//
//   - client.go: HTTP client, per-call timeouts and response decoding
//   - types.go: Credentials bundle, Item records and the per-type summary
//   - errors.go: NetworkError, the single error type surfaced to callers
//
// # Client Usage
//
//	client, err := backend.NewClient("http://localhost:8000")
//	if err != nil {
//		return err
//	}
//
//	authURL, err := client.RequestAuthorizationURL(ctx, userID, orgID)
//	// open authURL in a popup, wait for it to close ...
//	creds, err := client.ExchangeForCredentials(ctx, userID, orgID)
//	items, err := client.FetchItems(ctx, creds)
//
// # Endpoints
//
// Every call is a form-encoded POST under /integrations/{provider}:
//
//   - authorize: fields user_id, org_id; returns the consent URL
//   - credentials: fields user_id, org_id; returns the token bundle
//   - get_{provider}_items: field credentials (JSON text); returns items
//
// The provider segment defaults to "hubspot" and can be changed with
// WithProvider.
//
// # Timeouts
//
// Each call runs under its own budget, applied on top of the caller's context:
// 10s for authorize and credentials, 30s for the item fetch (the backend pages
// through several object types). WithTimeouts overrides individual budgets.
//
// # Error Handling
//
// Every failure is a *NetworkError. When the backend answers with a JSON body
// of the form {"detail": "..."} the detail string becomes the error message
// verbatim, so users see the backend's own wording. Otherwise the message
// names the status code, the exceeded timeout or the transport failure.
//
// Empty answers are not errors at this layer. An authorize call that returns
// no URL yields "", and a credentials call whose body is not a JSON object
// yields nil credentials. The connector decides what those mean.
//
// # Credentials
//
// Credentials is an opaque map so that unknown fields survive the round trip
// back to the item fetch. Token exposes an oauth2.Token view for display,
// deriving Expiry from expires_in and the backend's retrieved_at stamp.
package backend
