package registry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// PackLoader loads action definitions from a directory of YAML files and
// keeps the registry in sync when files change. Each file holds one
// action definition.
type PackLoader struct {
	dir     string
	actions ActionStore
	logger  *slog.Logger

	mu     sync.Mutex
	loaded map[string]string // file path -> action ID
}

// NewPackLoader creates a loader for the given pack directory.
func NewPackLoader(dir string, actions ActionStore, logger *slog.Logger) *PackLoader {
	return &PackLoader{
		dir:     dir,
		actions: actions,
		logger:  logger,
		loaded:  make(map[string]string),
	}
}

// Load registers every action definition found in the pack directory.
// Malformed files are logged and skipped so one bad pack file cannot
// keep the daemon from starting.
func (l *PackLoader) Load(ctx context.Context) error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("reading pack directory %s: %w", l.dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		if err := l.loadFile(ctx, path); err != nil {
			l.logger.Warn("skipping pack file", "path", path, "error", err)
		}
	}
	return nil
}

// Watch starts a background goroutine that re-syncs action definitions
// when pack files are written, created or removed. The returned stop
// function closes the watcher.
func (l *PackLoader) Watch(ctx context.Context) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("pack watcher: %w", err)
	}
	if err := w.Add(l.dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("pack watcher add %s: %w", l.dir, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !isYAML(ev.Name) {
					continue
				}
				switch {
				case ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create):
					if err := l.loadFile(ctx, ev.Name); err != nil {
						l.logger.Warn("pack reload failed", "path", ev.Name, "error", err)
					}
				case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
					l.removeFile(ctx, ev.Name)
				}
			case <-w.Errors:
				// Watcher errors are not actionable here.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// loadFile parses one action definition and (re-)registers it. An
// existing registration from the same file is replaced.
func (l *PackLoader) loadFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var action Action
	if err := yaml.Unmarshal(data, &action); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if prevID, ok := l.loaded[path]; ok {
		if err := l.actions.Delete(ctx, prevID); err != nil {
			l.logger.Debug("stale pack action already gone", "id", prevID)
		}
	}
	if err := l.actions.Create(ctx, &action); err != nil {
		return err
	}
	l.loaded[path] = action.ID
	l.logger.Info("registered pack action", "name", action.Name, "path", filepath.Base(path))
	return nil
}

func (l *PackLoader) removeFile(ctx context.Context, path string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, ok := l.loaded[path]
	if !ok {
		return
	}
	delete(l.loaded, path)
	if err := l.actions.Delete(ctx, id); err == nil {
		l.logger.Info("unregistered pack action", "id", id, "path", filepath.Base(path))
	}
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
