// Package pipeline runs one generation request from submitted form to
// packaged deliverable.
package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"path/filepath"
	"sort"

	"github.com/benn-herrera/loadergen/featureset"
	"github.com/benn-herrera/loadergen/gen"
	"github.com/benn-herrera/loadergen/index"
	"github.com/benn-herrera/loadergen/model"
	"github.com/benn-herrera/loadergen/packager"
	"github.com/benn-herrera/loadergen/registry"
	"github.com/benn-herrera/loadergen/request"
)

// Specs provides the registry snapshot a request works against.
type Specs interface {
	Current() *registry.Registry
}

// Workspaces hands out exclusively owned output directories.
type Workspaces interface {
	Provision() (string, error)
	Remove(dir string) error
}

// Indexer records finalized deliverables.
type Indexer interface {
	Put(ctx context.Context, e index.Entry) error
}

// Result describes a finalized deliverable.
type Result struct {
	ID          string
	Dir         string
	Archive     string
	Files       []string
	FeatureSets []*model.FeatureSet
}

// Pipeline holds the collaborators shared by all requests. It keeps no
// per-request state and is safe for concurrent use.
type Pipeline struct {
	specs     Specs
	backends  *gen.Registry
	work      Workspaces
	publisher packager.Publisher
	index     Indexer
	log       *slog.Logger
}

// Option configures optional collaborators.
type Option func(*Pipeline)

// WithPublisher uploads every archive after packaging.
func WithPublisher(p packager.Publisher) Option {
	return func(pl *Pipeline) { pl.publisher = p }
}

// WithIndex records every deliverable.
func WithIndex(i Indexer) Option {
	return func(pl *Pipeline) { pl.index = i }
}

// WithLogger sets the logger. It defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(pl *Pipeline) { pl.log = l }
}

// New returns a pipeline resolving specifications through specs and
// generators through backends.
func New(specs Specs, backends *gen.Registry, work Workspaces, opts ...Option) *Pipeline {
	p := &Pipeline{specs: specs, backends: backends, work: work, log: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one request. Any returned error is a *model.Error. On error
// no deliverable exists: the workspace, if one was provisioned, is removed.
func (p *Pipeline) Run(ctx context.Context, form url.Values) (*Result, error) {
	res, err := p.run(ctx, form)
	if err == nil {
		return res, nil
	}
	tagged := model.AsError(err)
	if tagged.Kind == model.KindValidation {
		p.log.Info("generation rejected", "error", tagged.Error())
	} else {
		p.log.Error("generation failed", "error", tagged.Error(), "form", form.Encode())
	}
	return nil, tagged
}

func (p *Pipeline) run(ctx context.Context, form url.Values) (_ *Result, err error) {
	sel, err := request.Decode(form)
	if err != nil {
		return nil, err
	}

	backend, err := p.backends.Lookup(sel.Generator)
	if err != nil {
		return nil, err
	}
	cfg := backend.NewConfig()
	for _, o := range sel.Options {
		cfg.Set(o, true)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := p.specs.Current()
	groups, err := featureset.Group(reg, sel.APIs)
	if err != nil {
		return nil, err
	}

	p.log.Info("generation started", "generator", sel.Generator, "apis", apiStrings(sel.APIs), "merge", sel.Merge)

	dir, err := p.work.Provision()
	if err != nil {
		return nil, model.WrapInternal(err, "provisioning workspace")
	}
	defer func() {
		if err != nil {
			if rmErr := p.work.Remove(dir); rmErr != nil {
				p.log.Warn("removing failed workspace", "dir", dir, "error", rmErr)
			}
		}
	}()

	opener := &gen.CountingOpener{Opener: gen.NewDirOpener(dir)}
	g := backend.New(dir, opener)
	builder := &featureset.Builder{Specs: reg, Generator: g, Config: cfg}

	var generated []*model.FeatureSet
	for _, group := range groups {
		spec, err := reg.Specification(group.Specification)
		if err != nil {
			return nil, err
		}
		sets, err := builder.Build(group, sel)
		if err != nil {
			return nil, err
		}
		for _, fs := range featureset.Resolve(sets, sel.Merge) {
			if err := g.Generate(spec, fs, cfg); err != nil {
				return nil, model.WrapInternal(err, "generating %s", fs.Name)
			}
			p.log.Debug("feature set generated", "specification", spec.Name, "name", fs.Name, "apis", fs.APIs(), "commands", len(fs.Commands))
			generated = append(generated, fs)
		}
	}

	id, err := packager.Package(dir, form)
	if err != nil {
		return nil, model.WrapInternal(err, "packaging")
	}
	archive := filepath.Join(dir, packager.ArchiveName)

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, id, archive); err != nil {
			return nil, model.WrapInternal(err, "publishing %s", id)
		}
	}

	files := uniqueSorted(opener.Names())
	if p.index != nil {
		entry := index.Entry{
			ID:        id,
			Generator: sel.Generator,
			APIs:      apiStrings(sel.APIs),
			Record:    request.EncodeRecord(form),
			Files:     len(files),
		}
		if err := p.index.Put(ctx, entry); err != nil {
			return nil, model.WrapInternal(err, "indexing %s", id)
		}
	}

	p.log.Info("generation finished", "id", id, "files", len(files), "feature_sets", len(generated))
	return &Result{ID: id, Dir: dir, Archive: archive, Files: files, FeatureSets: generated}, nil
}

func apiStrings(apis []model.APIVersion) []string {
	out := make([]string, len(apis))
	for i, a := range apis {
		out[i] = a.String()
	}
	return out
}

func uniqueSorted(names []string) []string {
	var set model.OrderedSet
	set.Add(names...)
	out := set.Items()
	sort.Strings(out)
	return out
}
