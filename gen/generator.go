package gen

import (
	"fmt"
	"sort"

	"github.com/benn-herrera/loadergen/model"
)

// Generator is the interface all loader generator backends implement.
// A Generator is bound to one output directory for the lifetime of a request.
type Generator interface {
	// Select resolves one API selection into a feature set. It performs no I/O.
	Select(spec *model.Specification, api string, version model.Version, profile string, extensions []string, cfg Config) (*model.FeatureSet, error)

	// Generate writes the source files for fs below the bound output directory.
	// It may be called several times per request with different feature sets;
	// files shared between calls must stay consistent.
	Generate(spec *model.Specification, fs *model.FeatureSet, cfg Config) error
}

// Backend describes a generator backend and how to construct it.
type Backend struct {
	Name        string
	Description string
	Options     []OptionInfo

	// NewConfig returns a fresh configuration owned by one request.
	NewConfig func() Config

	// New binds a generator to outputDir. All files are created through opener.
	New func(outputDir string, opener Opener) Generator
}

// Registry maps backend names to backends. It is built at startup and only
// read afterwards.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: map[string]Backend{}}
}

// Register adds a backend. Registering the same name twice is a programming
// error and panics.
func (r *Registry) Register(b Backend) {
	if b.Name == "" {
		panic("generator backend registered without a name")
	}
	if _, exists := r.backends[b.Name]; exists {
		panic(fmt.Sprintf("generator %q already registered", b.Name))
	}
	r.backends[b.Name] = b
}

// Lookup returns the named backend.
func (r *Registry) Lookup(name string) (Backend, error) {
	b, ok := r.backends[name]
	if !ok {
		return Backend{}, model.Validationf("unknown generator %q", name)
	}
	return b, nil
}

// Names returns all backend names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Backends returns all backends sorted by name.
func (r *Registry) Backends() []Backend {
	out := make([]Backend, 0, len(r.backends))
	for _, name := range r.Names() {
		out = append(out, r.backends[name])
	}
	return out
}

// Builtin returns a registry holding the backends shipped with loadergen.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register(CBackend())
	r.Register(ManifestBackend())
	return r
}
