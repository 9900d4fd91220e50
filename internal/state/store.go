package state

import (
	"sync"
	"time"

	"github.com/five82/hublink/internal/backend"
)

const (
	// KeyCredentials holds the credential bundle once a connection succeeds.
	KeyCredentials = "credentials"
	// KeyType holds the provider display name of the connected integration.
	KeyType = "type"
)

// IntegrationParams is the key/value object shared with the host. The
// connector only ever writes KeyCredentials and KeyType; every other key
// belongs to the host and survives updates untouched.
type IntegrationParams map[string]any

// Credentials returns the stored credential bundle, or nil when absent or
// cleared.
func (p IntegrationParams) Credentials() backend.Credentials {
	switch v := p[KeyCredentials].(type) {
	case backend.Credentials:
		return v
	case map[string]any:
		return backend.Credentials(v)
	default:
		return nil
	}
}

// Type returns the stored integration type, or "" when absent or cleared.
func (p IntegrationParams) Type() string {
	s, _ := p[KeyType].(string)
	return s
}

// Connected reports whether the params carry usable credentials.
func (p IntegrationParams) Connected() bool {
	return p.Credentials().Valid()
}

// With returns a copy of p with key set to value.
func (p IntegrationParams) With(key string, value any) IntegrationParams {
	dup := p.Clone()
	if dup == nil {
		dup = IntegrationParams{}
	}
	dup[key] = value
	return dup
}

// Clone returns a shallow copy of p. Credential bundles are copied as well so
// callers cannot mutate stored tokens through a snapshot.
func (p IntegrationParams) Clone() IntegrationParams {
	if p == nil {
		return nil
	}
	dup := make(IntegrationParams, len(p))
	for k, v := range p {
		if creds, ok := v.(backend.Credentials); ok {
			v = creds.Clone()
		}
		dup[k] = v
	}
	return dup
}

// Snapshot is an immutable view of the integration params.
type Snapshot struct {
	Params      IntegrationParams
	LastUpdated time.Time
	Revision    uint64 // incremented on every Update
}

// Store coordinates concurrent access to the integration params.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// NewStore returns a Store seeded with initial. The map is copied.
func NewStore(initial IntegrationParams) *Store {
	s := &Store{}
	s.snapshot.Params = initial.Clone()
	return s
}

// Update applies fn to the current params and stores the result. fn receives
// a copy and may modify it freely.
func (s *Store) Update(fn func(prev IntegrationParams) IntegrationParams) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.snapshot.Params.Clone())
	s.snapshot.Params = next.Clone()
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.Revision++
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Params = s.snapshot.Params.Clone()
	return snap
}

// Params is shorthand for Snapshot().Params.
func (s *Store) Params() IntegrationParams {
	return s.Snapshot().Params
}
