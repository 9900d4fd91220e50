package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/five82/hublink/internal/backend"
	"github.com/five82/hublink/internal/state"
	"github.com/five82/hublink/internal/telemetry"
)

const (
	defaultDisplayName = "HubSpot"
	defaultProvider    = "hubspot"
)

// Popup shows the consent page and reports when the user closes it.
// *popup.Monitor implements it.
type Popup interface {
	Open(url string, onClosed func()) error
	Release()
}

// ParamsStore holds the integration params shared with the host.
// *state.Store implements it.
type ParamsStore interface {
	Params() state.IntegrationParams
	Update(fn func(prev state.IntegrationParams) state.IntegrationParams)
}

// Options configure a Connector.
type Options struct {
	Backend     backend.Authority
	Popup       Popup
	Params      ParamsStore
	Provider    string // used for logs and telemetry; default "hubspot"
	DisplayName string // stored as the integration type; default "HubSpot"
	Logger      *slog.Logger
	Reporter    telemetry.Reporter
	OnChange    func(Status)
}

// Connector drives the popup authorization flow for one integration.
type Connector struct {
	backend     backend.Authority
	popup       Popup
	params      ParamsStore
	provider    string
	displayName string
	logger      *slog.Logger
	reporter    telemetry.Reporter
	onChange    func(Status)

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu         sync.Mutex
	phase      phase
	failed     bool
	lastErr    error
	warning    error
	itemCount  *int
	summary    []backend.TypeCount
	items      []backend.Item
	verifying  bool
	generation uint64
	attemptID  string
	userID     string
	orgID      string
	attemptCtx context.Context
	cancel     context.CancelFunc
	closed     bool
}

// New builds a Connector. Backend, Popup and Params are required.
func New(opts Options) (*Connector, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("connector: backend is required")
	}
	if opts.Popup == nil {
		return nil, fmt.Errorf("connector: popup is required")
	}
	if opts.Params == nil {
		return nil, fmt.Errorf("connector: params store is required")
	}
	c := &Connector{
		backend:     opts.Backend,
		popup:       opts.Popup,
		params:      opts.Params,
		provider:    strings.TrimSpace(opts.Provider),
		displayName: strings.TrimSpace(opts.DisplayName),
		logger:      opts.Logger,
		reporter:    opts.Reporter,
		onChange:    opts.OnChange,
	}
	if c.provider == "" {
		c.provider = defaultProvider
	}
	if c.displayName == "" {
		c.displayName = defaultDisplayName
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	c.logger = c.logger.With("provider", c.provider)
	if c.reporter == nil {
		c.reporter = telemetry.Noop{}
	}
	c.baseCtx, c.baseCancel = context.WithCancel(context.Background())
	return c, nil
}

// DisplayName returns the provider name shown to users.
func (c *Connector) DisplayName() string {
	return c.displayName
}

// InitiateConnection starts a new authorization attempt: it asks the backend
// for a consent URL and opens it in a popup. It returns once the popup is
// showing; the rest of the flow runs when the user closes the window.
//
// ctx bounds the authorize call only.
func (c *Connector) InitiateConnection(ctx context.Context, userID, orgID string) error {
	userID = strings.TrimSpace(userID)
	orgID = strings.TrimSpace(orgID)

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.stateLocked().InProgress():
		c.mu.Unlock()
		return ErrConnectionInProgress
	case c.stateLocked() == Connected:
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	if userID == "" || orgID == "" {
		err := &ValidationError{Message: msgIdentifiersRequired}
		c.lastErr = err
		c.mu.Unlock()
		c.emit()
		return err
	}

	c.generation++
	gen := c.generation
	c.attemptID = uuid.NewString()
	c.phase = phaseStarting
	c.failed = false
	c.lastErr = nil
	c.warning = nil
	c.userID = userID
	c.orgID = orgID
	c.resetAttemptCtxLocked()
	attemptCtx := c.attemptCtx
	attemptID := c.attemptID
	c.mu.Unlock()

	c.logger.Info("connection requested", "attempt", attemptID, "user_id", userID, "org_id", orgID)
	c.reporter.Report(telemetry.EventConnectRequested, c.props(attemptID, nil))
	c.emit()

	callCtx, callCancel := context.WithCancel(attemptCtx)
	stop := context.AfterFunc(ctx, callCancel)
	authURL, err := c.backend.RequestAuthorizationURL(callCtx, userID, orgID)
	stop()
	callCancel()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrAttemptCancelled
	}
	if err != nil {
		c.failStartLocked(err)
		c.mu.Unlock()
		c.afterStartFailure(attemptID, err)
		return err
	}
	if authURL == "" {
		err := &AuthorizationStartError{Message: msgNoAuthorizationURL}
		c.failStartLocked(err)
		c.mu.Unlock()
		c.afterStartFailure(attemptID, err)
		return err
	}

	// onClosed takes c.mu, so it cannot run before phase reaches awaiting.
	if err := c.popup.Open(authURL, func() { c.onWindowClosed(gen) }); err != nil {
		startErr := &AuthorizationStartError{Message: msgPopupBlocked, Err: err}
		c.failStartLocked(startErr)
		c.mu.Unlock()
		c.afterStartFailure(attemptID, startErr)
		return startErr
	}
	c.phase = phaseAwaiting
	c.mu.Unlock()

	c.logger.Info("authorization window opened", "attempt", attemptID)
	c.emit()
	return nil
}

// failStartLocked records a start-stage failure. The state returns to
// Disconnected with the error kept for display.
func (c *Connector) failStartLocked(err error) {
	c.phase = phaseIdle
	c.lastErr = err
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = nil
	c.attemptCtx = nil
}

func (c *Connector) afterStartFailure(attemptID string, err error) {
	c.logger.Warn("authorization start failed", "attempt", attemptID, "error", err)
	c.reporter.Report(telemetry.EventFailed, c.props(attemptID, telemetry.Properties{
		"stage": "authorize",
		"error": err.Error(),
	}))
	c.emit()
}

// onWindowClosed runs on the popup watcher once the consent window is gone.
func (c *Connector) onWindowClosed(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.phase != phaseAwaiting {
		c.mu.Unlock()
		return
	}
	c.phase = phaseExchanging
	ctx := c.attemptCtx
	userID, orgID, attemptID := c.userID, c.orgID, c.attemptID
	c.mu.Unlock()

	c.logger.Info("authorization window closed", "attempt", attemptID, "state", ExchangingCredentials.String())
	c.emit()

	creds, err := c.backend.ExchangeForCredentials(ctx, userID, orgID)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding stale credential exchange", "attempt", attemptID)
		return
	}
	if err != nil || !creds.Valid() {
		exErr := &CredentialExchangeError{Message: msgInvalidCredentials, Err: err}
		if err != nil {
			exErr.Message = err.Error()
		}
		c.phase = phaseIdle
		c.failed = true
		c.lastErr = exErr
		c.mu.Unlock()

		c.logger.Warn("credential exchange failed", "attempt", attemptID, "state", Errored.String(), "error", exErr)
		c.reporter.Report(telemetry.EventFailed, c.props(attemptID, telemetry.Properties{
			"stage": "credentials",
			"error": exErr.Error(),
		}))
		c.emit()
		return
	}

	c.params.Update(func(prev state.IntegrationParams) state.IntegrationParams {
		return prev.With(state.KeyCredentials, creds.Clone()).With(state.KeyType, c.displayName)
	})
	c.phase = phaseIdle
	c.failed = false
	c.lastErr = nil
	// Held until the item fetch below finishes; Resume skips while set.
	c.verifying = true
	c.mu.Unlock()

	c.logger.Info("integration connected", "attempt", attemptID, "state", Connected.String())
	c.reporter.Report(telemetry.EventConnected, c.props(attemptID, nil))
	c.emit()

	_ = c.VerifyConnection(ctx)
}

// VerifyConnection fetches the items visible to the stored credentials and
// records how many there are. A failure keeps the connection and returns a
// *VerificationWarning.
func (c *Connector) VerifyConnection(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	creds := c.params.Params().Credentials()
	if !creds.Valid() {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if c.attemptCtx == nil {
		c.resetAttemptCtxLocked()
	}
	attemptCtx := c.attemptCtx
	gen := c.generation
	attemptID := c.attemptID
	c.verifying = true
	c.mu.Unlock()
	c.emit()

	callCtx, callCancel := context.WithCancel(ctx)
	stop := context.AfterFunc(attemptCtx, callCancel)
	items, err := c.backend.FetchItems(callCtx, creds)
	stop()
	callCancel()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrAttemptCancelled
	}
	c.verifying = false
	var warning error
	if err != nil {
		warning = &VerificationWarning{Message: msgVerificationFailed, Err: err}
		c.itemCount = nil
		c.summary = nil
		c.items = nil
	} else {
		n := len(items)
		c.itemCount = &n
		c.summary = backend.Summarize(items)
		c.items = items
	}
	c.warning = warning
	summary := c.summary
	c.mu.Unlock()

	if warning != nil {
		c.logger.Warn("verification failed", "attempt", attemptID, "error", err)
		c.reporter.Report(telemetry.EventFailed, c.props(attemptID, telemetry.Properties{
			"stage": "items",
			"error": err.Error(),
		}))
	} else {
		attrs := []any{"attempt", attemptID, "item_count", len(items)}
		for _, tc := range summary {
			attrs = append(attrs, "items_"+tc.Type, tc.Count)
		}
		c.logger.Info("integration verified", attrs...)
		c.reporter.Report(telemetry.EventVerified, c.props(attemptID, telemetry.Properties{
			"item_count": len(items),
		}))
	}
	c.emit()
	return warning
}

// Resume verifies credentials the host already holds when no item count is
// known yet. It is a no-op otherwise.
func (c *Connector) Resume(ctx context.Context) error {
	c.mu.Lock()
	needed := !c.closed && c.params.Params().Connected() && c.itemCount == nil && !c.verifying && c.phase == phaseIdle
	c.mu.Unlock()
	if !needed {
		return nil
	}
	c.logger.Info("resuming existing connection")
	err := c.VerifyConnection(ctx)
	if errors.Is(err, ErrNotConnected) {
		return nil
	}
	return err
}

// Disconnect forgets the credentials and any attempt in progress. It makes no
// network call; in-flight requests are cancelled and their results dropped.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	wasConnected := c.params.Params().Connected()
	attemptID := c.attemptID
	c.generation++
	c.phase = phaseIdle
	c.failed = false
	c.lastErr = nil
	c.warning = nil
	c.itemCount = nil
	c.summary = nil
	c.items = nil
	c.verifying = false
	c.attemptID = ""
	cancel := c.cancel
	c.cancel = nil
	c.attemptCtx = nil
	c.params.Update(func(prev state.IntegrationParams) state.IntegrationParams {
		return prev.With(state.KeyCredentials, nil).With(state.KeyType, nil)
	})
	// Open and Release both run under c.mu.
	c.popup.Release()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	c.logger.Info("integration disconnected", "attempt", attemptID, "was_connected", wasConnected)
	c.reporter.Report(telemetry.EventDisconnected, c.props(attemptID, telemetry.Properties{
		"was_connected": wasConnected,
	}))
	c.emit()
}

// Close releases the popup and cancels in-flight work. The integration params
// are left as they are.
func (c *Connector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	c.phase = phaseIdle
	c.verifying = false
	c.cancel = nil
	c.attemptCtx = nil
	c.popup.Release()
	c.mu.Unlock()

	c.baseCancel()
}

// Status returns the current view of the connector.
func (c *Connector) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Connector) statusLocked() Status {
	params := c.params.Params()
	st := Status{
		State:     c.stateLocked(),
		Error:     c.lastErr,
		Warning:   c.warning,
		ItemCount: c.itemCount,
		Summary:   c.summary,
		Items:     c.items,
		Verifying: c.verifying,
		AttemptID: c.attemptID,
		Type:      params.Type(),
	}
	if creds := params.Credentials(); creds.Valid() {
		st.Token = creds.Token()
	}
	return st.clone()
}

func (c *Connector) stateLocked() ConnectionState {
	switch c.phase {
	case phaseStarting:
		return Connecting
	case phaseAwaiting:
		return AwaitingWindowClose
	case phaseExchanging:
		return ExchangingCredentials
	}
	if c.params.Params().Connected() {
		return Connected
	}
	if c.failed {
		return Errored
	}
	return Disconnected
}

func (c *Connector) resetAttemptCtxLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.attemptCtx, c.cancel = context.WithCancel(c.baseCtx)
}

func (c *Connector) emit() {
	st := c.Status()
	c.logger.Debug("connection state changed", "attempt", st.AttemptID, "state", st.State.String())
	if c.onChange != nil {
		c.onChange(st)
	}
}

func (c *Connector) props(attemptID string, extra telemetry.Properties) telemetry.Properties {
	props := telemetry.Properties{
		"provider":   c.provider,
		"attempt_id": attemptID,
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}
