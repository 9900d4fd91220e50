package connector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/hublink/internal/backend"
	"github.com/five82/hublink/internal/popup"
	"github.com/five82/hublink/internal/state"
	"github.com/five82/hublink/internal/telemetry"
)

type fakeBackend struct {
	mu sync.Mutex

	authURL  string
	authErr  error
	creds    backend.Credentials
	credsErr error
	items    []backend.Item
	itemsErr error

	beforeExchange func(ctx context.Context)

	authCalls      int
	credCalls      int
	itemCalls      int
	lastUser       string
	lastOrg        string
	lastItemsCreds backend.Credentials
}

func (f *fakeBackend) RequestAuthorizationURL(ctx context.Context, userID, orgID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCalls++
	f.lastUser, f.lastOrg = userID, orgID
	return f.authURL, f.authErr
}

func (f *fakeBackend) ExchangeForCredentials(ctx context.Context, userID, orgID string) (backend.Credentials, error) {
	f.mu.Lock()
	hook := f.beforeExchange
	f.credCalls++
	f.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds.Clone(), f.credsErr
}

func (f *fakeBackend) FetchItems(ctx context.Context, creds backend.Credentials) ([]backend.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemCalls++
	f.lastItemsCreds = creds
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return append([]backend.Item{}, f.items...), nil
}

func (f *fakeBackend) calls() (auth, creds, items int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authCalls, f.credCalls, f.itemCalls
}

type fakePopup struct {
	mu       sync.Mutex
	openErr  error
	urls     []string
	onClosed func()
	releases int
	// onRelease runs inside Release without p.mu held.
	onRelease func()
}

func (p *fakePopup) Open(url string, onClosed func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.urls = append(p.urls, url)
	if p.openErr != nil {
		return p.openErr
	}
	p.onClosed = onClosed
	return nil
}

func (p *fakePopup) Release() {
	p.mu.Lock()
	p.releases++
	p.onClosed = nil
	hook := p.onRelease
	p.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// closeWindow simulates the user closing the popup. The callback runs on the
// calling goroutine.
func (p *fakePopup) closeWindow(t *testing.T) {
	t.Helper()
	p.takeCallback(t)()
}

func (p *fakePopup) takeCallback(t *testing.T) func() {
	t.Helper()
	p.mu.Lock()
	fn := p.onClosed
	p.onClosed = nil
	p.mu.Unlock()
	if fn == nil {
		t.Fatalf("no popup open")
	}
	return fn
}

func (p *fakePopup) opened() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.urls)
}

type recordingReporter struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingReporter) Report(event string, _ telemetry.Properties) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingReporter) Close() error { return nil }

func (r *recordingReporter) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.events...)
}

type harness struct {
	conn     *Connector
	backend  *fakeBackend
	popup    *fakePopup
	store    *state.Store
	reporter *recordingReporter
	states   *stateLog
}

type stateLog struct {
	mu     sync.Mutex
	states []ConnectionState
}

func (l *stateLog) add(s Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.states); n > 0 && l.states[n-1] == s.State {
		return
	}
	l.states = append(l.states, s.State)
}

func (l *stateLog) list() []ConnectionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ConnectionState{}, l.states...)
}

func newHarness(t *testing.T, initial state.IntegrationParams) *harness {
	t.Helper()
	h := &harness{
		backend: &fakeBackend{
			authURL: "https://app.hubspot.com/oauth/authorize?client_id=x",
			creds:   backend.Credentials{"access_token": "tok123"},
		},
		popup:    &fakePopup{},
		store:    state.NewStore(initial),
		reporter: &recordingReporter{},
		states:   &stateLog{},
	}
	conn, err := New(Options{
		Backend:  h.backend,
		Popup:    h.popup,
		Params:   h.store,
		Reporter: h.reporter,
		OnChange: h.states.add,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(conn.Close)
	h.conn = conn
	return h
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Options{Popup: &fakePopup{}, Params: &state.Store{}}); err == nil {
		t.Fatalf("New without backend returned nil error")
	}
	if _, err := New(Options{Backend: &fakeBackend{}, Params: &state.Store{}}); err == nil {
		t.Fatalf("New without popup returned nil error")
	}
	if _, err := New(Options{Backend: &fakeBackend{}, Popup: &fakePopup{}}); err == nil {
		t.Fatalf("New without params returned nil error")
	}
}

func TestInitiateConnection_ValidationMakesNoCalls(t *testing.T) {
	tests := []struct {
		name string
		user string
		org  string
	}{
		{"empty user", "", "o1"},
		{"empty org", "u1", ""},
		{"blank both", "  ", "\t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			err := h.conn.InitiateConnection(context.Background(), tt.user, tt.org)

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if err.Error() != "User ID and Organization ID are required" {
				t.Fatalf("message = %q", err.Error())
			}
			if auth, creds, items := h.backend.calls(); auth+creds+items != 0 {
				t.Fatalf("backend calls = %d/%d/%d, want none", auth, creds, items)
			}
			if h.popup.opened() != 0 {
				t.Fatalf("popup opened %d times, want 0", h.popup.opened())
			}
			if st := h.conn.Status(); st.State != Disconnected || st.Error == nil {
				t.Fatalf("status = %+v, want disconnected with error", st)
			}
		})
	}
}

func TestInitiateConnection_MissingURL(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.authURL = ""

	err := h.conn.InitiateConnection(context.Background(), "u1", "o1")
	var startErr *AuthorizationStartError
	if !errors.As(err, &startErr) || err.Error() != "No authorization URL received" {
		t.Fatalf("error = %v, want AuthorizationStartError(No authorization URL received)", err)
	}
	st := h.conn.Status()
	if st.State != Disconnected {
		t.Fatalf("State = %v, want disconnected", st.State)
	}
	if st.ErrorMessage() != "No authorization URL received" {
		t.Fatalf("Error = %q", st.ErrorMessage())
	}
	if h.popup.opened() != 0 {
		t.Fatalf("popup opened without a URL")
	}
}

func TestInitiateConnection_BackendFailureSurfacesNetworkError(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.authErr = &backend.NetworkError{StatusCode: 500}

	err := h.conn.InitiateConnection(context.Background(), "u1", "o1")
	if !backend.IsNetworkError(err) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
	st := h.conn.Status()
	if st.State != Disconnected || st.ErrorMessage() != "request failed with status code 500" {
		t.Fatalf("status = %v / %q", st.State, st.ErrorMessage())
	}
	if got := h.reporter.list(); len(got) != 2 || got[1] != telemetry.EventFailed {
		t.Fatalf("events = %v, want requested then failed", got)
	}
}

func TestInitiateConnection_PopupBlocked(t *testing.T) {
	h := newHarness(t, nil)
	h.popup.openErr = popup.ErrPopupBlocked

	err := h.conn.InitiateConnection(context.Background(), "u1", "o1")
	var startErr *AuthorizationStartError
	if !errors.As(err, &startErr) {
		t.Fatalf("error = %v, want *AuthorizationStartError", err)
	}
	if err.Error() != "Popup blocked. Please allow popups and try again." {
		t.Fatalf("message = %q", err.Error())
	}
	if !errors.Is(err, popup.ErrPopupBlocked) {
		t.Fatalf("error should wrap popup.ErrPopupBlocked")
	}
	if st := h.conn.Status(); st.State != Disconnected {
		t.Fatalf("State = %v, want disconnected", st.State)
	}
	if _, creds, _ := h.backend.calls(); creds != 0 {
		t.Fatalf("credential calls = %d, want 0", creds)
	}
}

func TestConnectFlow_SuccessMergesParamsAndCountsItems(t *testing.T) {
	h := newHarness(t, state.IntegrationParams{"workspace": "acme", "theme": "dark"})
	h.backend.items = []backend.Item{{Type: "contact"}, {Type: "company"}, {Type: "contact"}}

	if err := h.conn.InitiateConnection(context.Background(), " u1 ", "o1"); err != nil {
		t.Fatalf("InitiateConnection returned error: %v", err)
	}
	if h.backend.lastUser != "u1" || h.backend.lastOrg != "o1" {
		t.Fatalf("identifiers = %q/%q, want trimmed u1/o1", h.backend.lastUser, h.backend.lastOrg)
	}
	st := h.conn.Status()
	if st.State != AwaitingWindowClose {
		t.Fatalf("State = %v, want awaiting_window_close", st.State)
	}
	if st.AttemptID == "" {
		t.Fatalf("AttemptID empty")
	}
	if h.popup.urls[0] != h.backend.authURL {
		t.Fatalf("popup url = %q, want %q", h.popup.urls[0], h.backend.authURL)
	}

	h.popup.closeWindow(t)

	st = h.conn.Status()
	if st.State != Connected {
		t.Fatalf("State = %v, want connected", st.State)
	}
	params := h.store.Params()
	if params.Credentials().AccessToken() != "tok123" || params.Type() != "HubSpot" {
		t.Fatalf("params = %v, want credentials and type merged", params)
	}
	if params["workspace"] != "acme" || params["theme"] != "dark" {
		t.Fatalf("unrelated keys lost: %v", params)
	}
	if st.ItemCount == nil || *st.ItemCount != 3 {
		t.Fatalf("ItemCount = %v, want 3", st.ItemCount)
	}
	if len(st.Summary) != 2 || st.Summary[1] != (backend.TypeCount{Type: "contact", Count: 2}) {
		t.Fatalf("Summary = %v", st.Summary)
	}
	if st.Token == nil || st.Token.AccessToken != "tok123" {
		t.Fatalf("Token = %+v, want tok123", st.Token)
	}
	if h.backend.lastItemsCreds.AccessToken() != "tok123" {
		t.Fatalf("items fetched with %v", h.backend.lastItemsCreds)
	}

	want := []ConnectionState{Connecting, AwaitingWindowClose, ExchangingCredentials, Connected}
	got := h.states.list()
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", got, want)
		}
	}

	events := h.reporter.list()
	wantEvents := []string{telemetry.EventConnectRequested, telemetry.EventConnected, telemetry.EventVerified}
	if len(events) != len(wantEvents) {
		t.Fatalf("events = %v, want %v", events, wantEvents)
	}
}

func TestConnectFlow_EmptyCredentialsErrors(t *testing.T) {
	h := newHarness(t, state.IntegrationParams{"workspace": "acme"})
	h.backend.creds = backend.Credentials{}

	if err := h.conn.InitiateConnection(context.Background(), "u1", "o1"); err != nil {
		t.Fatalf("InitiateConnection returned error: %v", err)
	}
	h.popup.closeWindow(t)

	st := h.conn.Status()
	if st.State != Errored {
		t.Fatalf("State = %v, want errored", st.State)
	}
	var exErr *CredentialExchangeError
	if !errors.As(st.Error, &exErr) || exErr.Error() != "Invalid credentials received" {
		t.Fatalf("Error = %v, want CredentialExchangeError(Invalid credentials received)", st.Error)
	}
	params := h.store.Params()
	if _, ok := params[state.KeyCredentials]; ok {
		t.Fatalf("params gained credentials: %v", params)
	}
	if len(params) != 1 || params["workspace"] != "acme" {
		t.Fatalf("params changed: %v", params)
	}
	if _, _, items := h.backend.calls(); items != 0 {
		t.Fatalf("items fetched after failed exchange")
	}

	// Errored behaves as Disconnected for retry.
	h.backend.creds = backend.Credentials{"access_token": "tok123"}
	if err := h.conn.InitiateConnection(context.Background(), "u1", "o1"); err != nil {
		t.Fatalf("retry returned error: %v", err)
	}
	if st := h.conn.Status(); st.State != AwaitingWindowClose || st.Error != nil {
		t.Fatalf("retry status = %v / %v", st.State, st.Error)
	}
}

func TestConnectFlow_ExchangeErrorKeepsBackendMessage(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.credsErr = &backend.NetworkError{StatusCode: 400, Detail: "No HubSpot credentials found. Please authorize the integration first."}

	if err := h.conn.InitiateConnection(context.Background(), "u1", "o1"); err != nil {
		t.Fatalf("InitiateConnection returned error: %v", err)
	}
	h.popup.closeWindow(t)

	st := h.conn.Status()
	if st.State != Errored {
		t.Fatalf("State = %v, want errored", st.State)
	}
	if st.ErrorMessage() != "No HubSpot credentials found. Please authorize the integration first." {
		t.Fatalf("Error = %q", st.ErrorMessage())
	}
	if !backend.IsNetworkError(st.Error) {
		t.Fatalf("exchange error should wrap the network error")
	}
}

func TestVerifyConnection_FailureKeepsConnection(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.itemsErr = errors.New("upstream 502")

	if err := h.conn.InitiateConnection(context.Background(), "u1", "o1"); err != nil {
		t.Fatalf("InitiateConnection returned error: %v", err)
	}
	h.popup.closeWindow(t)

	st := h.conn.Status()
	if st.State != Connected {
		t.Fatalf("State = %v, want connected", st.State)
	}
	if st.ItemCount != nil {
		t.Fatalf("ItemCount = %v, want nil", *st.ItemCount)
	}
	var warn *VerificationWarning
	if !errors.As(st.Warning, &warn) || warn.Error() != "Connected but failed to fetch data" {
		t.Fatalf("Warning = %v", st.Warning)
	}

	// A later successful verification clears the warning.
	h.backend.mu.Lock()
	h.backend.itemsErr = nil
	h.backend.items = []backend.Item{{Type: "deal"}}
	h.backend.mu.Unlock()
	if err := h.conn.VerifyConnection(context.Background()); err != nil {
		t.Fatalf("VerifyConnection returned error: %v", err)
	}
	st = h.conn.Status()
	if st.Warning != nil || st.ItemCount == nil || *st.ItemCount != 1 {
		t.Fatalf("status after reverify = %+v", st)
	}
}

func TestVerifyConnection_FailureClearsPreviousCount(t *testing.T) {
	h := newHarness(t, state.IntegrationParams{state.KeyCredentials: backend.Credentials{"access_token": "tok"}})
	h.backend.items = []backend.Item{{Type: "contact"}}
	if err := h.conn.VerifyConnection(context.Background()); err != nil {
		t.Fatalf("VerifyConnection returned error: %v", err)
	}

	h.backend.mu.Lock()
	h.backend.itemsErr = errors.New("boom")
	h.backend.mu.Unlock()
	err := h.conn.VerifyConnection(context.Background())
	var warn *VerificationWarning
	if !errors.As(err, &warn) {
		t.Fatalf("error = %v, want *VerificationWarning", err)
	}
	if st := h.conn.Status(); st.ItemCount != nil || st.Summary != nil {
		t.Fatalf("count/summary not cleared: %+v", st)
	}
}

func TestVerifyConnection_NotConnected(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.conn.VerifyConnection(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("error = %v, want ErrNotConnected", err)
	}
}

func TestDisconnect_ResetsEverything(t *testing.T) {
	h := newHarness(t, state.IntegrationParams{"workspace": "acme"})
	h.backend.items = []backend.Item{{Type: "contact"}, {Type: "company"}, {Type: "deal"}}

	if err := h.conn.InitiateConnection(context.Background(), "u1", "o1"); err != nil {
		t.Fatalf("InitiateConnection returned error: %v", err)
	}
	h.popup.closeWindow(t)
	if st := h.conn.Status(); st.ItemCount == nil || *st.ItemCount != 3 {
		t.Fatalf("ItemCount = %v, want 3", st.ItemCount)
	}

	authBefore, credsBefore, itemsBefore := h.backend.calls()
	h.conn.Disconnect()

	st := h.conn.Status()
	if st.State != Disconnected || st.ItemCount != nil || st.Error != nil || st.Warning != nil || st.Token != nil {
		t.Fatalf("status after disconnect = %+v", st)
	}
	params := h.store.Params()
	creds, hasCreds := params[state.KeyCredentials]
	typ, hasType := params[state.KeyType]
	if !hasCreds || !hasType || creds != nil || typ != nil {
		t.Fatalf("params = %v, want credentials and type present and nil", params)
	}
	if params["workspace"] != "acme" {
		t.Fatalf("unrelated key lost: %v", params)
	}
	if a, c, i := h.backend.calls(); a != authBefore || c != credsBefore || i != itemsBefore {
		t.Fatalf("disconnect made network calls")
	}
	if h.popup.releases == 0 {
		t.Fatalf("popup not released on disconnect")
	}
}

func TestInitiateConnection_Reentrancy(t *testing.T) {
	h := newHarness(t, nil)

	if err := h.conn.InitiateConnection(context.Background(), "u1", "o1"); err != nil {
		t.Fatalf("InitiateConnection returned error: %v", err)
	}
	before := h.conn.Status()
	if err := h.conn.InitiateConnection(context.Background(), "u1", "o1"); !errors.Is(err, ErrConnectionInProgress) {
		t.Fatalf("error = %v, want ErrConnectionInProgress", err)
	}
	after := h.conn.Status()
	if after.State != before.State || after.AttemptID != before.AttemptID {
		t.Fatalf("reentrant call changed status: %+v -> %+v", before, after)
	}
	if auth, _, _ := h.backend.calls(); auth != 1 {
		t.Fatalf("authorize calls = %d, want 1", auth)
	}

	h.popup.closeWindow(t)
	if err := h.conn.InitiateConnection(context.Background(), "u1", "o1"); !errors.Is(err, ErrAlreadyConnected) {
		t.Fatalf("error = %v, want ErrAlreadyConnected", err)
	}
}

func TestDisconnect_DropsInFlightExchange(t *testing.T) {
	h := newHarness(t, nil)
	entered := make(chan struct{})
	release := make(chan struct{})
	var cancelled atomic.Bool
	h.backend.beforeExchange = func(ctx context.Context) {
		close(entered)
		<-release
		cancelled.Store(ctx.Err() != nil)
	}

	if err := h.conn.InitiateConnection(context.Background(), "u1", "o1"); err != nil {
		t.Fatalf("InitiateConnection returned error: %v", err)
	}
	onClosed := h.popup.takeCallback(t)
	done := make(chan struct{})
	go func() {
		defer close(done)
		onClosed()
	}()

	<-entered
	if st := h.conn.Status(); st.State != ExchangingCredentials {
		t.Fatalf("State = %v, want exchanging_credentials", st.State)
	}
	h.conn.Disconnect()
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("exchange did not finish")
	}

	if !cancelled.Load() {
		t.Fatalf("in-flight exchange context not cancelled")
	}
	st := h.conn.Status()
	if st.State != Disconnected || st.Error != nil {
		t.Fatalf("stale result applied: %+v", st)
	}
	if h.store.Params().Connected() {
		t.Fatalf("stale credentials stored")
	}
	if _, _, items := h.backend.calls(); items != 0 {
		t.Fatalf("items fetched for a stale attempt")
	}
}

func TestResume_VerifiesExistingCredentials(t *testing.T) {
	h := newHarness(t, state.IntegrationParams{
		state.KeyCredentials: backend.Credentials{"access_token": "tok"},
		state.KeyType:        "HubSpot",
	})
	h.backend.items = []backend.Item{{Type: "contact"}, {Type: "contact"}}

	if st := h.conn.Status(); st.State != Connected {
		t.Fatalf("State = %v, want connected from host params", st.State)
	}
	if err := h.conn.Resume(context.Background()); err != nil {
		t.Fatalf("Resume returned error: %v", err)
	}
	if st := h.conn.Status(); st.ItemCount == nil || *st.ItemCount != 2 {
		t.Fatalf("ItemCount = %v, want 2", st.ItemCount)
	}
	if err := h.conn.Resume(context.Background()); err != nil {
		t.Fatalf("second Resume returned error: %v", err)
	}
	if _, _, items := h.backend.calls(); items != 1 {
		t.Fatalf("item calls = %d, want 1 (count already known)", items)
	}
}

func TestResume_NoCredentialsIsNoop(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.conn.Resume(context.Background()); err != nil {
		t.Fatalf("Resume returned error: %v", err)
	}
	if _, _, items := h.backend.calls(); items != 0 {
		t.Fatalf("item calls = %d, want 0", items)
	}
}

func TestClose_RejectsNewAttempts(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.conn.InitiateConnection(context.Background(), "u1", "o1"); err != nil {
		t.Fatalf("InitiateConnection returned error: %v", err)
	}
	h.conn.Close()
	h.conn.Close()

	if h.popup.releases == 0 {
		t.Fatalf("popup not released on close")
	}
	if err := h.conn.InitiateConnection(context.Background(), "u1", "o1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("error = %v, want ErrClosed", err)
	}
}

type scriptedWindow struct {
	closed atomic.Bool
}

func (w *scriptedWindow) Closed() bool { return w.closed.Load() }

func (w *scriptedWindow) Close() error {
	w.closed.Store(true)
	return nil
}

type scriptedOpener struct {
	window *scriptedWindow
}

func (o *scriptedOpener) Open(string, popup.Size) (popup.Window, error) {
	return o.window, nil
}

func TestConnectFlow_WithPopupMonitor(t *testing.T) {
	fb := &fakeBackend{
		authURL: "https://example.com/consent",
		creds:   backend.Credentials{"access_token": "tok123"},
		items:   []backend.Item{{Type: "contact"}},
	}
	win := &scriptedWindow{}
	monitor := popup.NewMonitor(&scriptedOpener{window: win}, 5*time.Millisecond)
	store := &state.Store{}

	connected := make(chan Status, 1)
	conn, err := New(Options{
		Backend: fb,
		Popup:   monitor,
		Params:  store,
		OnChange: func(s Status) {
			if s.State == Connected && s.ItemCount != nil {
				select {
				case connected <- s:
				default:
				}
			}
		},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(conn.Close)

	if err := conn.InitiateConnection(context.Background(), "u1", "o1"); err != nil {
		t.Fatalf("InitiateConnection returned error: %v", err)
	}
	if monitor.State() != popup.Open {
		t.Fatalf("monitor state = %v, want open", monitor.State())
	}
	win.closed.Store(true)

	select {
	case st := <-connected:
		if *st.ItemCount != 1 {
			t.Fatalf("ItemCount = %d, want 1", *st.ItemCount)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("connection did not complete; status %+v", conn.Status())
	}
	if monitor.State() != popup.Closed {
		t.Fatalf("monitor state = %v, want closed", monitor.State())
	}
}

func TestConnectionStateString(t *testing.T) {
	tests := map[ConnectionState]string{
		Disconnected:          "disconnected",
		Connecting:            "connecting",
		AwaitingWindowClose:   "awaiting_window_close",
		ExchangingCredentials: "exchanging_credentials",
		Connected:             "connected",
		Errored:               "errored",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Fatalf("String() = %q, want %q", got, want)
		}
	}
	if !Connecting.InProgress() || Connected.InProgress() || !Errored.Terminal() {
		t.Fatalf("InProgress/Terminal classification wrong")
	}
}

func TestDisconnectAndClose_ReleasePopupUnderLock(t *testing.T) {
	h := newHarness(t, nil)

	var checked, unlocked atomic.Int32
	h.popup.mu.Lock()
	h.popup.onRelease = func() {
		checked.Add(1)
		if h.conn.mu.TryLock() {
			h.conn.mu.Unlock()
			unlocked.Add(1)
		}
	}
	h.popup.mu.Unlock()

	if err := h.conn.InitiateConnection(context.Background(), "u1", "o1"); err != nil {
		t.Fatalf("InitiateConnection returned error: %v", err)
	}
	h.conn.Disconnect()
	h.conn.Close()

	if checked.Load() != 2 {
		t.Fatalf("Release calls = %d, want 2", checked.Load())
	}
	if unlocked.Load() != 0 {
		t.Fatalf("popup released without the connector lock held %d time(s)", unlocked.Load())
	}
}
