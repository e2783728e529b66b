package config

import (
	"context"
	"path/filepath"
	"time"

	"katapultqc/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// RulesWatcher watches the Rules JSON document on disk and triggers a fresh
// evaluation when it changes, realizing spec.md §5's "fast re-run path when
// the operator changes a tunable" as an actual hot-reload loop. Adapted from
// the teacher's pkg/config/watcher.go FileWatcher.
type RulesWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *logging.Logger
	onReload func(Rules)

	debounceDelay time.Duration
	lastEvent     time.Time

	// trigger is single-buffered: a burst of filesystem events collapses to
	// one pending reload, and the process loop never starts a second reload
	// while one is in flight, so RunQC invocations never overlap.
	trigger chan struct{}
}

// NewRulesWatcher creates a watcher for the Rules document at path.
func NewRulesWatcher(path string, debounceDelay time.Duration, onReload func(Rules)) (*RulesWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounceDelay <= 0 {
		debounceDelay = 500 * time.Millisecond
	}
	return &RulesWatcher{
		path:          path,
		watcher:       w,
		logger:        logging.NewLogger("rules-watcher", logging.INFO, false),
		onReload:      onReload,
		debounceDelay: debounceDelay,
		trigger:       make(chan struct{}, 1),
	}, nil
}

// Start begins watching the directory containing the Rules file and
// launches the serialized reload loop. Cancel ctx to stop both.
func (w *RulesWatcher) Start(ctx context.Context) error {
	if w.path == "" {
		w.logger.Info("no rules file to watch", nil)
		return nil
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	w.logger.Info("watching rules file", map[string]interface{}{"path": w.path, "dir": dir})

	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)

	return nil
}

// Stop closes the underlying filesystem watcher.
func (w *RulesWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *RulesWatcher) watchLoop(ctx context.Context) {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("rules watcher stopped", nil)
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("rules watcher error", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (w *RulesWatcher) handleEvent(event fsnotify.Event) {
	if event.Name != w.path {
		return
	}

	now := time.Now()
	if now.Sub(w.lastEvent) < w.debounceDelay {
		return
	}
	w.lastEvent = now

	switch {
	case event.Op&fsnotify.Write == fsnotify.Write, event.Op&fsnotify.Create == fsnotify.Create:
		select {
		case w.trigger <- struct{}{}:
		default:
			// a reload is already pending; the burst collapses to it
		}
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		w.logger.Warn("rules file removed", map[string]interface{}{"path": event.Name})
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		w.logger.Info("rules file renamed", map[string]interface{}{"path": event.Name})
	}
}

func (w *RulesWatcher) reloadLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.trigger:
			rules, err := LoadRulesFile(w.path)
			if err != nil {
				w.logger.Warn("rules reload failed, using default rules", map[string]interface{}{
					"path":  w.path,
					"error": err.Error(),
				})
			}
			if w.onReload != nil {
				w.onReload(rules)
			}
		}
	}
}
