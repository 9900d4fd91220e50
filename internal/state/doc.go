// Package state provides thread-safe storage for the integration params shared
// between the connector and its host.
//
// # Overview
//
// The host (the TUI or the headless connect command) owns an
// IntegrationParams map and hands the connector a way to read it and a way to
// replace it. Store is that pair: Snapshot for reads, Update for writes.
//
// # Ownership
//
// The connector writes exactly two keys:
//
//   - "credentials": the bundle returned by the backend, or nil once cleared
//   - "type": the provider display name ("HubSpot"), or nil once cleared
//
// Every other key belongs to the host and is carried through each Update
// unchanged. Disconnect sets both keys to nil rather than deleting them so the
// host can tell "was connected" apart from "never connected".
//
// # Concurrency Model
//
// Store uses a readers-writer lock:
//
//   - Update(): write lock; fn runs under the lock and must not block
//   - Snapshot(): read lock; concurrent reads allowed
//
// Both sides copy the map (and any credential bundle inside it), so a
// snapshot can be inspected or modified without affecting the stored value.
//
//	store := state.NewStore(state.IntegrationParams{"workspace": "acme"})
//	store.Update(func(prev state.IntegrationParams) state.IntegrationParams {
//		return prev.With(state.KeyCredentials, creds).With(state.KeyType, "HubSpot")
//	})
//	snap := store.Snapshot()
//	snap.Params.Connected() // true
//
// The zero Store is ready to use and starts with nil params.
package state
