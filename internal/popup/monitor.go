package popup

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// State is the lifecycle state of the monitored window.
type State int

const (
	Idle State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Size is the requested window size in pixels.
type Size struct {
	Width  int
	Height int
}

var (
	// DefaultSize matches the consent page layout of most providers.
	DefaultSize = Size{Width: 600, Height: 700}

	// ErrPopupBlocked reports that no window could be opened.
	ErrPopupBlocked = errors.New("popup blocked")
	// ErrAlreadyOpen reports an Open call while a window is still watched.
	ErrAlreadyOpen = errors.New("popup already open")
)

// DefaultInterval is how often an open window is checked for closure.
const DefaultInterval = time.Second

// Window is a handle to an opened authorization window.
type Window interface {
	Closed() bool
	Close() error
}

// Opener opens authorization windows.
type Opener interface {
	Open(url string, size Size) (Window, error)
}

// Monitor opens one window at a time and reports when the user closes it.
type Monitor struct {
	opener   Opener
	interval time.Duration
	size     Size
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	window  Window
	release func()
}

// Option customises a Monitor.
type Option func(*Monitor)

// WithSize overrides the requested window size.
func WithSize(size Size) Option {
	return func(m *Monitor) {
		if size.Width > 0 {
			m.size.Width = size.Width
		}
		if size.Height > 0 {
			m.size.Height = size.Height
		}
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMonitor builds a Monitor that checks for closure every interval.
// A non-positive interval uses DefaultInterval.
func NewMonitor(opener Opener, interval time.Duration, opts ...Option) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	m := &Monitor{
		opener:   opener,
		interval: interval,
		size:     DefaultSize,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Interval returns the closure check cadence.
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Open opens url in a new window and starts watching it. onClosed runs once,
// on the watcher goroutine, after the window is observed closed. It never runs
// if Release is called first.
//
// When the window cannot be opened the monitor stays Idle, no watcher is
// started and the returned error wraps ErrPopupBlocked.
func (m *Monitor) Open(url string, onClosed func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Open {
		return ErrAlreadyOpen
	}
	if m.opener == nil {
		return fmt.Errorf("%w: no opener configured", ErrPopupBlocked)
	}

	win, err := m.opener.Open(url, m.size)
	if err != nil {
		if !errors.Is(err, ErrPopupBlocked) {
			err = fmt.Errorf("%w: %w", ErrPopupBlocked, err)
		}
		m.state = Idle
		return err
	}
	if isNilWindow(win) {
		m.state = Idle
		return ErrPopupBlocked
	}

	stop := make(chan struct{})
	release := sync.OnceFunc(func() { close(stop) })
	m.state = Open
	m.window = win
	m.release = release
	m.logger.Debug("popup opened", "width", m.size.Width, "height", m.size.Height, "interval", m.interval)

	go m.watch(win, stop, release, onClosed)
	return nil
}

// isNilWindow also catches a nil pointer stored in the Window interface.
func isNilWindow(win Window) bool {
	if win == nil {
		return true
	}
	v := reflect.ValueOf(win)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func (m *Monitor) watch(win Window, stop <-chan struct{}, release func(), onClosed func()) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		if !win.Closed() {
			continue
		}

		m.mu.Lock()
		if m.window != win {
			// Released or replaced while we were checking.
			m.mu.Unlock()
			return
		}
		m.state = Closed
		m.window = nil
		m.release = nil
		release()
		m.mu.Unlock()

		m.logger.Debug("popup closed")
		if onClosed != nil {
			onClosed()
		}
		return
	}
}

// Release stops watching, closes the window if it is still open and returns
// the monitor to Idle. It never invokes the close callback and is safe to call
// any number of times.
func (m *Monitor) Release() {
	m.mu.Lock()
	win := m.window
	release := m.release
	m.window = nil
	m.release = nil
	m.state = Idle
	m.mu.Unlock()

	if release != nil {
		release()
	}
	if win != nil {
		if err := win.Close(); err != nil {
			m.logger.Warn("popup close failed", "error", err)
		}
		m.logger.Debug("popup released")
	}
}
