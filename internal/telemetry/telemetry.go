package telemetry

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
)

// Connection lifecycle events.
const (
	EventConnectRequested = "IntegrationConnectRequested"
	EventConnected        = "IntegrationConnected"
	EventVerified         = "IntegrationVerified"
	EventFailed           = "IntegrationFailed"
	EventDisconnected     = "IntegrationDisconnected"
)

const defaultEndpoint = "https://eu.i.posthog.com"

// Properties are event attributes. Never put credentials in them.
type Properties map[string]any

// Reporter records product events.
type Reporter interface {
	Report(event string, props Properties)
	Close() error
}

// Config selects and configures the reporter.
type Config struct {
	APIKey     string
	Endpoint   string
	DistinctID string // empty generates a random per-process ID
	Version    string
}

// Noop discards every event.
type Noop struct{}

func (Noop) Report(string, Properties) {}
func (Noop) Close() error              { return nil }

type enqueuer interface {
	Enqueue(posthog.Message) error
	Close() error
}

// PostHog sends events to a PostHog project.
type PostHog struct {
	client     enqueuer
	distinctID string
	version    string
	logger     *slog.Logger
}

// New returns a PostHog reporter when cfg carries an API key and a Noop
// reporter otherwise.
func New(cfg Config, logger *slog.Logger) (Reporter, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return Noop{}, nil
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	client, err := posthog.NewWithConfig(key, posthog.Config{
		Endpoint: endpoint,
		// Feature flags are unused; effectively disable their polling.
		DefaultFeatureFlagsPollingInterval: math.MaxInt64,
	})
	if err != nil {
		return nil, fmt.Errorf("create posthog client: %w", err)
	}
	return newPostHog(client, cfg, logger), nil
}

func newPostHog(client enqueuer, cfg Config, logger *slog.Logger) *PostHog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := strings.TrimSpace(cfg.DistinctID)
	if id == "" {
		id = uuid.NewString()
	}
	return &PostHog{
		client:     client,
		distinctID: id,
		version:    cfg.Version,
		logger:     logger,
	}
}

// Report enqueues event. Delivery failures are logged and otherwise ignored.
func (p *PostHog) Report(event string, props Properties) {
	properties := posthog.NewProperties()
	for k, v := range props {
		properties.Set(k, v)
	}
	if p.version != "" {
		properties.Set("version", p.version)
	}
	err := p.client.Enqueue(posthog.Capture{
		DistinctId: p.distinctID,
		Event:      event,
		Properties: properties,
	})
	if err != nil {
		p.logger.Warn("telemetry enqueue failed", "event", event, "error", err)
	}
}

// Close flushes pending events.
func (p *PostHog) Close() error {
	return p.client.Close()
}

// DistinctID returns the ID events are attributed to.
func (p *PostHog) DistinctID() string {
	return p.distinctID
}
