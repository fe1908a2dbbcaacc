package upi

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

const inboxExt = ".url"

// Inbox is the inbound URL channel of a desktop process. The registered
// scheme handler drops each URL it is invoked with into a spool directory,
// and the running process publishes them to a Hub.
type Inbox struct {
	dir    string
	hub    *Hub
	logger *log.Logger
}

// NewInbox creates the spool directory if needed
func NewInbox(dir string, hub *Hub, logger *log.Logger) (*Inbox, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create inbox directory: %w", err)
	}
	return &Inbox{dir: dir, hub: hub, logger: logger}, nil
}

// Deliver spools url for the running process
func (i *Inbox) Deliver(url string) error {
	name := uuid.NewString()
	tmp := filepath.Join(i.dir, "."+name)
	if err := os.WriteFile(tmp, []byte(url), 0o600); err != nil {
		return fmt.Errorf("failed to write deep link: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(i.dir, name+inboxExt)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to spool deep link: %w", err)
	}
	i.logger.Debug("Spooled deep link", "url", url, "dir", i.dir)
	return nil
}

// Run publishes spooled URLs until ctx is done, starting with any already waiting
func (i *Inbox) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(i.dir); err != nil {
		return fmt.Errorf("watch inbox: %w", err)
	}

	if err := i.drain(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename) == 0 || !isSpooled(event.Name) {
				continue
			}
			i.consume(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			i.logger.Warn("Inbox watch error", "error", err)
		}
	}
}

// Discard removes every URL already spooled without publishing it, so links
// left from an earlier session are not mistaken for a reply to a new one
func (i *Inbox) Discard() (int, error) {
	names, err := i.spooled()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range names {
		if err := os.Remove(name); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				i.logger.Warn("Failed to discard deep link", "path", name, "error", err)
			}
			continue
		}
		removed++
	}
	if removed > 0 {
		i.logger.Debug("Discarded stale deep links", "count", removed)
	}
	return removed, nil
}

func (i *Inbox) spooled() ([]string, error) {
	entries, err := os.ReadDir(i.dir)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && isSpooled(e.Name()) {
			names = append(names, filepath.Join(i.dir, e.Name()))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (i *Inbox) drain() error {
	names, err := i.spooled()
	if err != nil {
		return err
	}
	for _, name := range names {
		i.consume(name)
	}
	return nil
}

func (i *Inbox) consume(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		// already consumed by the initial drain
		if !errors.Is(err, os.ErrNotExist) {
			i.logger.Warn("Failed to read deep link", "path", path, "error", err)
		}
		return
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		i.logger.Warn("Failed to remove deep link", "path", path, "error", err)
	}
	i.hub.Publish(strings.TrimSpace(string(data)))
}

func isSpooled(name string) bool {
	base := filepath.Base(name)
	return !strings.HasPrefix(base, ".") && strings.HasSuffix(base, inboxExt)
}
