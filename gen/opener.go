package gen

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrPathInvalid is returned for names that are absolute or escape the output root.
var ErrPathInvalid = errors.New("path invalid")

// Opener creates files for a generator. Names are slash-separated and
// relative to the generator's output directory.
type Opener interface {
	Create(name string) (io.WriteCloser, error)
}

// DirOpener writes files below a root directory. Each file is written to a
// temporary sibling and renamed into place on Close, so a file is either
// absent or complete.
type DirOpener struct {
	root  string
	permF os.FileMode
	permD os.FileMode
	chmod func(name string, mode os.FileMode) error
}

// NewDirOpener returns an opener rooted at root.
func NewDirOpener(root string) *DirOpener {
	return &DirOpener{root: root, permF: 0o640, permD: 0o750, chmod: os.Chmod}
}

// Resolve maps a relative name to a path below the root.
func (o *DirOpener) Resolve(name string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(name))
	if rel == "." || rel == "" {
		return "", ErrPathInvalid
	}
	if filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", ErrPathInvalid
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathInvalid
	}
	return filepath.Join(o.root, rel), nil
}

func (o *DirOpener) Create(name string) (io.WriteCloser, error) {
	dest, err := o.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, o.permD); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	if err := o.chmod(tmp.Name(), o.permF); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("setting permissions on %s: %w", name, err)
	}
	return &atomicFile{File: tmp, dest: dest}, nil
}

type atomicFile struct {
	*os.File
	dest   string
	closed bool
}

func (f *atomicFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	tmpPath := f.File.Name()
	if err := f.File.Sync(); err != nil {
		_ = f.File.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.File.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, f.dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// CountingOpener decorates an Opener and records every name created through it.
type CountingOpener struct {
	Opener Opener

	mu    sync.Mutex
	names []string
}

func (c *CountingOpener) Create(name string) (io.WriteCloser, error) {
	w, err := c.Opener.Create(name)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.names = append(c.names, name)
	c.mu.Unlock()
	return w, nil
}

// Names returns the created names in creation order. Names written more than
// once appear once per write.
func (c *CountingOpener) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// writeFile creates name through the opener and writes content to it.
func writeFile(opener Opener, name string, content []byte) error {
	w, err := opener.Create(name)
	if err != nil {
		return err
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	return nil
}
