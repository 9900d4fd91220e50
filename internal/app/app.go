package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/five82/hublink/internal/backend"
	"github.com/five82/hublink/internal/config"
	"github.com/five82/hublink/internal/connector"
	"github.com/five82/hublink/internal/logging"
	"github.com/five82/hublink/internal/popup"
	"github.com/five82/hublink/internal/prefs"
	"github.com/five82/hublink/internal/state"
	"github.com/five82/hublink/internal/telemetry"
	"github.com/five82/hublink/internal/ui"
)

// Options configure the hublink commands.
type Options struct {
	ConfigPath string // empty uses ~/.config/hublink/config.toml
	PrefsPath  string // empty uses ~/.config/hublink/prefs.toml
	UserID     string // overrides config and prefs
	OrgID      string // overrides config and prefs
	Version    string

	Stdout io.Writer
	Stderr io.Writer
	Opener popup.Opener // nil launches the configured browser
}

func (o Options) stdout() io.Writer {
	if o.Stdout == nil {
		return os.Stdout
	}
	return o.Stdout
}

func (o Options) stderr() io.Writer {
	if o.Stderr == nil {
		return os.Stderr
	}
	return o.Stderr
}

// session is one wired connector with everything it depends on.
type session struct {
	logger   *slog.Logger
	store    *state.Store
	reporter telemetry.Reporter
	conn     *connector.Connector
}

// newSession builds the backend client, popup monitor, telemetry reporter,
// params store and connector described by cfg.
func newSession(cfg config.Config, opts Options, logger *slog.Logger, onChange func(connector.Status)) (*session, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	client, err := backend.NewClient(cfg.BackendURL,
		backend.WithProvider(cfg.Provider),
		backend.WithTimeouts(backend.Timeouts(cfg.Timeouts)),
	)
	if err != nil {
		return nil, fmt.Errorf("init backend client: %w", err)
	}

	opener := opts.Opener
	if opener == nil {
		opener = &popup.ExecOpener{Command: cfg.Popup.Command, Args: cfg.Popup.Args}
	}
	monitor := popup.NewMonitor(opener, cfg.PollInterval,
		popup.WithSize(popup.Size{Width: cfg.Popup.Width, Height: cfg.Popup.Height}),
		popup.WithLogger(logger),
	)

	reporter, err := telemetry.New(telemetry.Config{
		APIKey:   cfg.Telemetry.PostHogAPIKey,
		Endpoint: cfg.Telemetry.Endpoint,
		Version:  opts.Version,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	store := state.NewStore(nil)
	conn, err := connector.New(connector.Options{
		Backend:     client,
		Popup:       monitor,
		Params:      store,
		Provider:    cfg.Provider,
		DisplayName: cfg.DisplayName,
		Logger:      logger,
		Reporter:    reporter,
		OnChange:    onChange,
	})
	if err != nil {
		_ = reporter.Close()
		return nil, fmt.Errorf("init connector: %w", err)
	}

	return &session{
		logger:   logger,
		store:    store,
		reporter: reporter,
		conn:     conn,
	}, nil
}

func (s *session) close() {
	s.conn.Close()
	if err := s.reporter.Close(); err != nil {
		s.logger.Warn("telemetry close failed", "error", err)
	}
}

// identity picks the first non-empty pair from the flags, the config and the
// remembered prefs.
func identity(opts Options, cfg config.Config, p prefs.Prefs) (string, string) {
	user := firstNonEmpty(opts.UserID, cfg.UserID)
	org := firstNonEmpty(opts.OrgID, cfg.OrgID)
	prefUser, prefOrg := p.Identity()
	return firstNonEmpty(user, prefUser), firstNonEmpty(org, prefOrg)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Run boots the hublink TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logCfg, err := logging.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	logFile, err := logging.OpenFile(cfg.LogPath)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := logging.NewLogger(logCfg, logFile, "tui")
	slog.SetDefault(logger)

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, _ := prefs.Load(prefsPath)

	changes := make(chan connector.Status, 16)
	s, err := newSession(cfg, opts, logger, func(st connector.Status) {
		select {
		case changes <- st:
		default:
			// The UI tick will pick up the latest status.
		}
	})
	if err != nil {
		return err
	}
	defer s.close()

	logger.Info("hublink started", "backend_url", cfg.BackendURL, "log_path", cfg.LogPath)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	StartParamsWatcher(watchCtx, s.store, s.conn, cfg.PollInterval, logger)

	user, org := identity(opts, cfg, userPrefs)
	return ui.Run(ui.Options{
		Context:   ctx,
		Connector: s.conn,
		Store:     s.store,
		Changes:   changes,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		UserID:    user,
		OrgID:     org,
		LogPath:   cfg.LogPath,
		PollTick:  cfg.PollInterval,
		Logger:    logger,
	})
}
