package gen

import (
	"bytes"
	"io"
	"path/filepath"
	"sort"
	"testing"

	"github.com/benn-herrera/loadergen/loader"
	"github.com/benn-herrera/loadergen/model"
)

func loadSpec(t *testing.T, name string) *model.Specification {
	t.Helper()
	spec, err := loader.LoadSpecification(filepath.Join("..", "testdata", "specs", name))
	if err != nil {
		t.Fatalf("loading %s: %v", name, err)
	}
	return spec
}

func version(t *testing.T, s string) model.Version {
	t.Helper()
	v, err := model.ParseVersion(s)
	if err != nil {
		t.Fatalf("ParseVersion(%q): %v", s, err)
	}
	return v
}

// memOpener keeps created files in memory.
type memOpener struct {
	files  map[string][]byte
	writes map[string]int
}

func newMemOpener() *memOpener {
	return &memOpener{files: map[string][]byte{}, writes: map[string]int{}}
}

func (m *memOpener) Create(name string) (io.WriteCloser, error) {
	return &memFile{opener: m, name: name}, nil
}

func (m *memOpener) names() []string {
	names := make([]string, 0, len(m.files))
	for n := range m.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type memFile struct {
	bytes.Buffer
	opener *memOpener
	name   string
}

func (f *memFile) Close() error {
	f.opener.files[f.name] = f.Bytes()
	f.opener.writes[f.name]++
	return nil
}

// generate selects and generates one API through a backend.
func generate(t *testing.T, b Backend, spec *model.Specification, api, ver, profile string, exts []string, options ...string) *memOpener {
	t.Helper()
	cfg := b.NewConfig()
	for _, o := range options {
		cfg.Set(o, true)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	opener := newMemOpener()
	g := b.New("out", opener)
	fs, err := g.Select(spec, api, version(t, ver), profile, exts, cfg)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := g.Generate(spec, fs, cfg); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return opener
}
