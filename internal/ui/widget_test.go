package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/five82/hublink/internal/backend"
	"github.com/five82/hublink/internal/connector"
)

func intPtr(n int) *int { return &n }

func TestButtonLabel(t *testing.T) {
	cases := []struct {
		name string
		st   connector.Status
		want string
	}{
		{"disconnected", connector.Status{State: connector.Disconnected}, "Connect to HubSpot"},
		{"errored", connector.Status{State: connector.Errored}, "Connect to HubSpot"},
		{"connecting", connector.Status{State: connector.Connecting}, "Connecting..."},
		{"awaiting", connector.Status{State: connector.AwaitingWindowClose}, "Connecting..."},
		{"exchanging", connector.Status{State: connector.ExchangingCredentials}, "Connecting..."},
		{"verifying", connector.Status{State: connector.Connected, Verifying: true}, "Loading..."},
		{"connected", connector.Status{State: connector.Connected}, "HubSpot Connected"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := buttonLabel(tc.st, "HubSpot"); got != tc.want {
				t.Fatalf("buttonLabel = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestButtonColor(t *testing.T) {
	th := GetTheme("Slate")
	cases := []struct {
		name string
		st   connector.Status
		want string
	}{
		{"idle", connector.Status{State: connector.Disconnected}, th.Accent},
		{"error wins", connector.Status{State: connector.Errored, Error: errors.New("boom")}, th.Danger},
		{"connected", connector.Status{State: connector.Connected}, th.Success},
		{"connected with start error", connector.Status{State: connector.Connected, Error: errors.New("x")}, th.Danger},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := buttonColor(tc.st, th); got != tc.want {
				t.Fatalf("buttonColor = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestItemsChip(t *testing.T) {
	if got := itemsChip(connector.Status{State: connector.Connected, ItemCount: intPtr(3)}); got != "3 items loaded" {
		t.Fatalf("itemsChip = %q, want %q", got, "3 items loaded")
	}
	if got := itemsChip(connector.Status{State: connector.Connected, ItemCount: intPtr(0)}); got != "0 items loaded" {
		t.Fatalf("itemsChip(0) = %q, want %q", got, "0 items loaded")
	}
	if got := itemsChip(connector.Status{State: connector.Connected}); got != "" {
		t.Fatalf("itemsChip without count = %q, want empty", got)
	}
	if got := itemsChip(connector.Status{State: connector.Disconnected, ItemCount: intPtr(3)}); got != "" {
		t.Fatalf("itemsChip while disconnected = %q, want empty", got)
	}
}

func TestRenderWidget_Connected(t *testing.T) {
	m := New(Options{Connector: &fakeConn{}, ThemeName: "Nightfox", UserID: "TestUser", OrgID: "TestOrg"})
	m.width = 100
	m.now = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }
	m.status = connector.Status{
		State:     connector.Connected,
		ItemCount: intPtr(3),
		Summary:   []backend.TypeCount{{Type: "contact", Count: 2}, {Type: "company", Count: 1}},
		Token:     &oauth2.Token{AccessToken: "tok", TokenType: "Bearer", Expiry: time.Date(2025, 1, 1, 12, 30, 0, 0, time.UTC)},
		Warning:   &connector.VerificationWarning{Message: "Connected but failed to fetch data"},
	}

	out := m.renderWidget()
	for _, want := range []string{
		"HubSpot Integration",
		"HubSpot Connected",
		"3 items loaded",
		"Integration active",
		"contact",
		"company",
		"Bearer",
		"expires in 30m0s",
		"Connected but failed to fetch data",
		"TestUser",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("renderWidget missing %q:\n%s", want, out)
		}
	}
}

func TestRenderWidget_ErrorAlert(t *testing.T) {
	m := New(Options{Connector: &fakeConn{}})
	m.status = connector.Status{
		State: connector.Disconnected,
		Error: &connector.ValidationError{Message: "User ID and Organization ID are required"},
	}

	out := m.renderWidget()
	if !strings.Contains(out, "User ID and Organization ID are required") {
		t.Fatalf("renderWidget missing error alert:\n%s", out)
	}
	if !strings.Contains(out, "Connect to HubSpot") {
		t.Fatalf("renderWidget missing button label:\n%s", out)
	}
	if strings.Contains(out, "Integration active") {
		t.Fatalf("renderWidget should not show active caption while disconnected")
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("short", 10); got != "short" {
		t.Fatalf("truncateMiddle = %q, want unchanged", got)
	}
	got := truncateMiddle("/home/user/.local/state/hublink/hublink.log", 15)
	if len([]rune(got)) != 15 || !strings.Contains(got, "…") {
		t.Fatalf("truncateMiddle = %q, want 15 runes with ellipsis", got)
	}
}
