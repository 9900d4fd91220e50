package popup

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// DefaultArgs launch a chromium-style browser as a standalone app window with
// its own profile, so the process exits when the user closes the window.
var DefaultArgs = []string{
	"--app={url}",
	"--window-size={width},{height}",
	"--user-data-dir={profile}",
	"--no-first-run",
	"--no-default-browser-check",
}

// defaultBrowsers are tried in order when no command is configured.
var defaultBrowsers = []string{"chromium", "chromium-browser", "google-chrome", "google-chrome-stable", "microsoft-edge"}

const closeWait = 3 * time.Second

// ExecOpener opens windows by launching a browser process. The window counts
// as closed once the process exits.
type ExecOpener struct {
	// Command is the browser binary. Empty picks the first chromium-style
	// browser found on PATH.
	Command string
	// Args are passed to Command after substituting {url}, {width}, {height}
	// and {profile}. Nil uses DefaultArgs.
	Args []string
}

var _ Opener = (*ExecOpener)(nil)

// Open starts the browser. Any failure to start is reported as ErrPopupBlocked.
func (o *ExecOpener) Open(url string, size Size) (Window, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: empty url", ErrPopupBlocked)
	}
	command, err := o.resolveCommand()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPopupBlocked, err)
	}

	profile, err := os.MkdirTemp("", "hublink-popup-")
	if err != nil {
		return nil, fmt.Errorf("%w: create profile dir: %w", ErrPopupBlocked, err)
	}

	args := o.Args
	if args == nil {
		args = DefaultArgs
	}
	cmd := exec.Command(command, expandArgs(args, url, size, profile)...)
	if err := cmd.Start(); err != nil {
		_ = os.RemoveAll(profile)
		return nil, fmt.Errorf("%w: start %s: %w", ErrPopupBlocked, command, err)
	}

	w := &processWindow{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		_ = os.RemoveAll(profile)
		w.closed.Store(true)
		close(w.done)
	}()
	return w, nil
}

func (o *ExecOpener) resolveCommand() (string, error) {
	if cmd := strings.TrimSpace(o.Command); cmd != "" {
		return cmd, nil
	}
	for _, candidate := range defaultBrowsers {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", errors.New("no supported browser found on PATH")
}

func expandArgs(args []string, url string, size Size, profile string) []string {
	r := strings.NewReplacer(
		"{url}", url,
		"{width}", strconv.Itoa(size.Width),
		"{height}", strconv.Itoa(size.Height),
		"{profile}", profile,
	)
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = r.Replace(arg)
	}
	return out
}

type processWindow struct {
	cmd    *exec.Cmd
	closed atomic.Bool
	done   chan struct{}
}

func (w *processWindow) Closed() bool {
	return w.closed.Load()
}

// Close kills the browser process and waits briefly for it to exit.
func (w *processWindow) Close() error {
	if w.closed.Load() {
		return nil
	}
	if err := w.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill popup: %w", err)
	}
	select {
	case <-w.done:
	case <-time.After(closeWait):
		return fmt.Errorf("popup did not exit within %s", closeWait)
	}
	return nil
}
