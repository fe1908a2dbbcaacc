package upi

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/browser"
)

// runFunc runs an external command and returns its standard output
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// SystemOpener opens URLs with the platform's default handler.
// It cannot tell in advance whether a handler exists.
type SystemOpener struct{}

func (SystemOpener) Open(_ context.Context, u string) error {
	return browser.OpenURL(u)
}

// XDGOpener opens URLs through the freedesktop handler registry and can
// check whether a handler is registered for the URL's scheme
type XDGOpener struct {
	SystemOpener
	run runFunc
}

// NewXDGOpener creates an opener backed by xdg-mime and xdg-open
func NewXDGOpener() *XDGOpener {
	return &XDGOpener{run: runCommand}
}

func (o *XDGOpener) CanOpen(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("invalid url: %w", err)
	}
	out, err := o.run(ctx, "xdg-mime", "query", "default", "x-scheme-handler/"+u.Scheme)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(out)) != "", nil
}

// IntentLauncher launches a VIEW intent through the Android activity manager
type IntentLauncher struct {
	run runFunc
}

// NewIntentLauncher creates a launcher backed by `am start`
func NewIntentLauncher() *IntentLauncher {
	return &IntentLauncher{run: runCommand}
}

func (l *IntentLauncher) Launch(ctx context.Context, u string) error {
	// 0x10000000 is FLAG_ACTIVITY_NEW_TASK
	_, err := l.run(ctx, "am", "start", "-a", "android.intent.action.VIEW", "-d", u, "-f", "0x10000000")
	return err
}

// NewPlatformDispatcher picks the opener and secondary launcher for the running OS
func NewPlatformDispatcher(logger *log.Logger) *Dispatcher {
	switch runtime.GOOS {
	case "android", "linux":
		return NewDispatcher(NewXDGOpener(), NewIntentLauncher(), logger)
	default:
		return NewDispatcher(SystemOpener{}, nil, logger)
	}
}
