// Package workspace provisions the per-request output directories and
// reclaims old ones.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownID is returned for ids that do not name a directory of the manager.
var ErrUnknownID = errors.New("unknown deliverable id")

// DirPerm is the permission of every provisioned directory.
const DirPerm os.FileMode = 0o750

// Manager owns the directories below Root.
type Manager struct {
	root string
	now  func() time.Time
}

// New returns a manager rooted at root, creating root if needed.
func New(root string) (*Manager, error) {
	if err := os.MkdirAll(root, DirPerm); err != nil {
		return nil, fmt.Errorf("creating workspace root: %w", err)
	}
	return &Manager{root: root, now: time.Now}, nil
}

// Root returns the directory holding all workspaces.
func (m *Manager) Root() string {
	return m.root
}

// Provision creates a fresh, uniquely named directory owned by one request.
func (m *Manager) Provision() (string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		dir := filepath.Join(m.root, uuid.NewString())
		err := os.Mkdir(dir, DirPerm)
		if err == nil {
			// Mkdir is subject to the umask
			if err := os.Chmod(dir, DirPerm); err != nil {
				os.Remove(dir)
				return "", fmt.Errorf("setting workspace permissions: %w", err)
			}
			return dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("creating workspace: %w", err)
		}
	}
	return "", errors.New("creating workspace: name collision")
}

// Remove deletes a workspace and everything in it.
func (m *Manager) Remove(dir string) error {
	return os.RemoveAll(dir)
}

// Path returns the directory of a deliverable id.
func (m *Manager) Path(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", ErrUnknownID
	}
	dir := filepath.Join(m.root, id)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", ErrUnknownID
	}
	return dir, nil
}

// Sweep removes workspaces older than maxAge and returns how many were removed.
// Entries whose names are not workspace ids are left alone.
func (m *Manager) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return 0, fmt.Errorf("listing workspaces: %w", err)
	}
	cutoff := m.now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := uuid.Parse(e.Name()); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(m.root, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval, maxAge time.Duration, log *slog.Logger) {
	if interval <= 0 || maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Sweep(maxAge)
			if err != nil {
				log.Warn("workspace sweep failed", "error", err)
			}
			if n > 0 {
				log.Info("workspaces reclaimed", "count", n)
			}
		}
	}
}
