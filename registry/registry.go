// Package registry resolves API names to the specifications that own them.
// A Registry is immutable once built; reloading produces a new Registry.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/benn-herrera/loadergen/loader"
	"github.com/benn-herrera/loadergen/model"
	"github.com/benn-herrera/loadergen/validate"
)

// SpecPattern matches specification files below a registry directory.
const SpecPattern = "**/*.{yaml,yml}"

// Registry maps API names and specification names to loaded specifications.
type Registry struct {
	specs   map[string]*model.Specification
	byAPI   map[string]string
	ordered []string
}

// New builds a registry from already loaded specifications.
// Two specifications may not share a name or claim the same API.
func New(specs ...*model.Specification) (*Registry, error) {
	r := &Registry{
		specs: make(map[string]*model.Specification, len(specs)),
		byAPI: make(map[string]string),
	}
	for _, spec := range specs {
		if _, exists := r.specs[spec.Name]; exists {
			return nil, fmt.Errorf("specification %q defined more than once", spec.Name)
		}
		for _, api := range spec.APIs {
			if owner, exists := r.byAPI[api.Name]; exists {
				return nil, fmt.Errorf("api %q claimed by specifications %q and %q", api.Name, owner, spec.Name)
			}
			r.byAPI[api.Name] = spec.Name
		}
		r.specs[spec.Name] = spec
		r.ordered = append(r.ordered, spec.Name)
	}
	sort.Strings(r.ordered)
	return r, nil
}

// LoadDir loads, schema-validates and semantically validates every
// specification file below dir.
func LoadDir(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("specification directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("specification directory: %s is not a directory", dir)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), SpecPattern)
	if err != nil {
		return nil, fmt.Errorf("listing specifications in %s: %w", dir, err)
	}
	sort.Strings(matches)

	specs := make([]*model.Specification, 0, len(matches))
	for _, rel := range matches {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		spec, err := loader.LoadSpecification(path)
		if err != nil {
			return nil, fmt.Errorf("loading specification: %w", err)
		}
		if result := validate.Validate(spec); !result.IsValid() {
			return nil, fmt.Errorf("%s: semantic validation failed:\n%s", path, result.Error())
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no specifications found in %s", dir)
	}
	return New(specs...)
}

// SpecificationNameForAPI returns the name of the specification owning api.
func (r *Registry) SpecificationNameForAPI(api string) (string, error) {
	name, ok := r.byAPI[api]
	if !ok {
		return "", model.Validationf("unknown API %q", api)
	}
	return name, nil
}

// Specification returns the specification with the given name.
func (r *Registry) Specification(name string) (*model.Specification, error) {
	spec, ok := r.specs[name]
	if !ok {
		return nil, model.Validationf("unknown specification %q", name)
	}
	return spec, nil
}

// Names returns all specification names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Specifications returns all specifications sorted by name.
func (r *Registry) Specifications() []*model.Specification {
	out := make([]*model.Specification, 0, len(r.ordered))
	for _, name := range r.ordered {
		out = append(out, r.specs[name])
	}
	return out
}

// APIs returns every API name known to the registry, sorted.
func (r *Registry) APIs() []string {
	out := make([]string, 0, len(r.byAPI))
	for api := range r.byAPI {
		out = append(out, api)
	}
	sort.Strings(out)
	return out
}
