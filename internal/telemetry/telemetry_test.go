package telemetry

import (
	"errors"
	"testing"

	"github.com/posthog/posthog-go"
)

type fakeEnqueuer struct {
	messages []posthog.Message
	err      error
	closed   bool
}

func (f *fakeEnqueuer) Enqueue(msg posthog.Message) error {
	f.messages = append(f.messages, msg)
	return f.err
}

func (f *fakeEnqueuer) Close() error {
	f.closed = true
	return nil
}

func TestNew_NoKeyIsNoop(t *testing.T) {
	r, err := New(Config{APIKey: "  "}, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, ok := r.(Noop); !ok {
		t.Fatalf("reporter = %T, want Noop", r)
	}
	r.Report(EventConnected, Properties{"provider": "hubspot"})
	if err := r.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestPostHog_ReportCapturesEvent(t *testing.T) {
	fake := &fakeEnqueuer{}
	r := newPostHog(fake, Config{DistinctID: "user-1", Version: "0.1"}, nil)

	r.Report(EventVerified, Properties{"provider": "hubspot", "item_count": 3})

	if len(fake.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(fake.messages))
	}
	capture, ok := fake.messages[0].(posthog.Capture)
	if !ok {
		t.Fatalf("message = %T, want posthog.Capture", fake.messages[0])
	}
	if capture.Event != EventVerified || capture.DistinctId != "user-1" {
		t.Fatalf("capture = %+v, want event %s for user-1", capture, EventVerified)
	}
	if capture.Properties["item_count"] != 3 || capture.Properties["version"] != "0.1" {
		t.Fatalf("properties = %v, want item_count and version", capture.Properties)
	}

	if err := r.Close(); err != nil || !fake.closed {
		t.Fatalf("Close = %v, closed = %v", err, fake.closed)
	}
}

func TestPostHog_GeneratesDistinctID(t *testing.T) {
	a := newPostHog(&fakeEnqueuer{}, Config{}, nil)
	b := newPostHog(&fakeEnqueuer{}, Config{}, nil)
	if a.DistinctID() == "" || a.DistinctID() == b.DistinctID() {
		t.Fatalf("distinct IDs = %q, %q; want unique non-empty", a.DistinctID(), b.DistinctID())
	}
}

func TestPostHog_EnqueueFailureIsSwallowed(t *testing.T) {
	fake := &fakeEnqueuer{err: errors.New("queue full")}
	r := newPostHog(fake, Config{}, nil)
	r.Report(EventFailed, nil)
	if len(fake.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(fake.messages))
	}
}
