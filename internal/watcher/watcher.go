package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchedSubdirs are the project subtrees whose changes trigger a re-run.
var watchedSubdirs = []string{"models", "seeds", "macros", "tests", "snapshots"}

const debounceInterval = 500 * time.Millisecond

// Watcher re-runs a callback when files under a dbt project change.
// Events are debounced so an editor save burst triggers one run.
type Watcher struct {
	fsw *fsnotify.Watcher
	log *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{fsw: fsw, log: log}, nil
}

func (w *Watcher) Close() error { return w.fsw.Close() }

// Watch blocks until ctx is done, invoking onChange after each debounced
// batch of changes under projectDir's watched subtrees. onChange errors are
// logged, not fatal: the next change gets another run.
func (w *Watcher) Watch(ctx context.Context, projectDir string, onChange func(ctx context.Context) error) error {
	added := 0
	for _, sub := range watchedSubdirs {
		dir := filepath.Join(projectDir, sub)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := w.addTree(dir); err != nil {
			return err
		}
		added++
	}
	if added == 0 {
		return fmt.Errorf("no watchable directories under %s", projectDir)
	}
	w.log.Infow("watching project", "path", projectDir)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories need watching too
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					_ = w.addTree(event.Name)
				}
			}
			w.log.Debugw("change detected", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounceInterval)
				fire = timer.C
			} else {
				timer.Reset(debounceInterval)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("watch error", "error", err)
		case <-fire:
			timer = nil
			fire = nil
			if err := onChange(ctx); err != nil {
				w.log.Errorw("change handler failed", "error", err)
			}
		}
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}
