package monitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	// debounceInterval suppresses refresh storms: a transcript append
	// produces a burst of write events that should cause one refresh.
	debounceInterval = 500 * time.Millisecond
	// settleDelay gives an in-flight write a moment to finish before the
	// transcript is re-read.
	settleDelay = 100 * time.Millisecond
)

// Watcher observes the projects directory tree and triggers state refreshes
// when transcripts change.
type Watcher struct {
	state    *State
	log      *zap.Logger
	debounce time.Duration
	settle   time.Duration
	refresh  func() error
}

// NewWatcher creates a watcher bound to the given state store.
func NewWatcher(state *State, log *zap.Logger) *Watcher {
	return &Watcher{
		state:    state,
		log:      log,
		debounce: debounceInterval,
		settle:   settleDelay,
		refresh:  state.Refresh,
	}
}

// Run watches until ctx is cancelled. If the projects directory does not
// exist yet there is nothing to watch: Run logs and returns nil without
// polling for its later creation.
//
// fsnotify does not watch recursively, so every existing project
// subdirectory is registered up front and directories created later are
// added as their create events arrive.
func (w *Watcher) Run(ctx context.Context) error {
	projectsDir := w.state.Config().ProjectsDir()

	if _, err := os.Stat(projectsDir); os.IsNotExist(err) {
		w.log.Warn("projects directory does not exist, not watching",
			zap.String("path", projectsDir))
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(projectsDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", projectsDir, err)
	}
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return fmt.Errorf("failed to enumerate %s: %w", projectsDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			// Best effort: a project dir removed mid-scan is fine
			_ = fsw.Add(filepath.Join(projectsDir, entry.Name()))
		}
	}

	w.log.Info("started watching", zap.String("path", projectsDir))

	// Zero value means the first event after startup always refreshes.
	var lastRefresh time.Time

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = fsw.Add(event.Name)
				}
			}

			if time.Since(lastRefresh) <= w.debounce {
				continue
			}
			lastRefresh = time.Now()

			select {
			case <-time.After(w.settle):
			case <-ctx.Done():
				return nil
			}

			if err := w.refresh(); err != nil {
				w.log.Error("failed to refresh data", zap.Error(err))
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-ctx.Done():
			w.log.Info("stopping file watcher")
			return nil
		}
	}
}
