package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// Holder publishes the current registry. Requests call Current once and keep
// using that snapshot even if a reload swaps in a newer registry.
type Holder struct {
	current atomic.Pointer[Registry]
}

// NewHolder returns a holder publishing r.
func NewHolder(r *Registry) *Holder {
	h := &Holder{}
	h.current.Store(r)
	return h
}

// Current returns the registry snapshot to use for one request.
func (h *Holder) Current() *Registry {
	return h.current.Load()
}

// Swap replaces the published registry.
func (h *Holder) Swap(r *Registry) {
	h.current.Store(r)
}

// Watch reloads the registry from dir whenever a specification file anywhere
// below it changes. A reload that fails leaves the previous registry in place.
// Watch blocks until ctx is done.
func Watch(ctx context.Context, dir string, h *Holder, debounce time.Duration, log *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := addTree(w, dir); err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			reload := isSpecEvent(dir, event)
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				// a moved-in directory may already hold specifications
				if err := addTree(w, event.Name); err != nil {
					log.Warn("specification watcher error", "error", err)
				}
				reload = true
			}
			if !reload {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			reg, err := LoadDir(dir)
			if err != nil {
				log.Warn("specification reload failed, keeping previous registry", "dir", dir, "error", err)
				continue
			}
			h.Swap(reg)
			log.Info("specifications reloaded", "dir", dir, "specifications", reg.Names())

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("specification watcher error", "error", err)
		}
	}
}

// addTree watches root and every directory below it. fsnotify watches are not
// recursive.
func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isSpecEvent(dir string, event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	rel, err := filepath.Rel(dir, event.Name)
	if err != nil {
		return false
	}
	match, _ := doublestar.Match(SpecPattern, filepath.ToSlash(rel))
	return match
}
