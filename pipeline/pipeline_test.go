package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benn-herrera/loadergen/gen"
	"github.com/benn-herrera/loadergen/index"
	"github.com/benn-herrera/loadergen/model"
	"github.com/benn-herrera/loadergen/packager"
	"github.com/benn-herrera/loadergen/registry"
	"github.com/benn-herrera/loadergen/request"
	"github.com/benn-herrera/loadergen/workspace"
)

type fixture struct {
	pipeline *Pipeline
	work     *workspace.Manager
	logs     *bytes.Buffer
}

func newFixture(t *testing.T, backends *gen.Registry, opts ...Option) *fixture {
	t.Helper()
	reg, err := registry.LoadDir(filepath.Join("..", "testdata", "specs"))
	require.NoError(t, err)
	work, err := workspace.New(filepath.Join(t.TempDir(), "work"))
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	log := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts = append([]Option{WithLogger(log)}, opts...)
	return &fixture{
		pipeline: New(registry.NewHolder(reg), backends, work, opts...),
		work:     work,
		logs:     logs,
	}
}

func (f *fixture) workspaces(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.work.Root())
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func requireKind(t *testing.T, err error, kind model.ErrorKind) *model.Error {
	t.Helper()
	require.Error(t, err)
	var tagged *model.Error
	require.ErrorAs(t, err, &tagged)
	assert.Equal(t, kind, tagged.Kind, err.Error())
	return tagged
}

func TestRunC(t *testing.T) {
	f := newFixture(t, gen.Builtin())
	form := url.Values{
		"api":        {"gl=3.3", "gles1=none", "egl=1.5"},
		"profile":    {"gl=core"},
		"generator":  {"c"},
		"extensions": {"GL_KHR_debug", "EGL_KHR_platform_x11"},
		"options":    {"LOADER"},
	}
	res, err := runForm(t, f, form)
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(res.Dir), res.ID)
	assert.FileExists(t, res.Archive)
	assert.FileExists(t, filepath.Join(res.Dir, request.RecordFile))
	assert.Equal(t, []string{
		"include/egl/egl.h",
		"include/gl/gl.h",
		"include/loadergen/platform.h",
		"src/egl.c",
		"src/gl.c",
	}, res.Files)
	require.Len(t, res.FeatureSets, 2)
	assert.Equal(t, "gl", res.FeatureSets[0].Name)
	assert.Equal(t, []string{"GL_KHR_debug"}, res.FeatureSets[0].Extensions)
	assert.Equal(t, []string{"EGL_KHR_platform_x11"}, res.FeatureSets[1].Extensions)
	assert.Contains(t, f.logs.String(), "generation finished")
}

// runForm runs one request against the fixture.
func runForm(t *testing.T, f *fixture, form url.Values) (*Result, error) {
	t.Helper()
	return f.pipeline.Run(context.Background(), form)
}

func TestRunMerge(t *testing.T) {
	f := newFixture(t, gen.Builtin())
	res, err := runForm(t, f, url.Values{
		"api":       {"gl=4.6", "gles2=3.2"},
		"generator": {"manifest"},
		"options":   {"MERGE"},
	})
	require.NoError(t, err)
	require.Len(t, res.FeatureSets, 1)
	assert.Equal(t, []string{"gl", "gles2"}, res.FeatureSets[0].APIs())
	assert.Equal(t, []string{"gl/gles2.json", "index.json"}, res.Files)

	res, err = runForm(t, f, url.Values{
		"api":       {"gl=4.6", "gles2=3.2"},
		"generator": {"manifest"},
	})
	require.NoError(t, err)
	assert.Len(t, res.FeatureSets, 2)
	assert.Equal(t, []string{"gl/gl.json", "gl/gles2.json", "index.json"}, res.Files)
}

func TestRunValidationHasNoSideEffects(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		wantErr string
	}{
		{"no api", url.Values{"api": {"gl=none", "egl=NONE "}, "generator": {"c"}}, "no API selected"},
		{"unknown generator", url.Values{"api": {"gl=4.6"}, "generator": {"glad"}}, `unknown generator "glad"`},
		{"unknown api", url.Values{"api": {"vulkan=1.3"}, "generator": {"c"}}, `unknown API "vulkan"`},
		{"bad options", url.Values{"api": {"gl=4.6"}, "generator": {"c"}, "options": {"MX_GLOBAL"}}, "MX_GLOBAL requires MX"},
		{"unknown option", url.Values{"api": {"gl=4.6"}, "generator": {"c"}, "options": {"PRETTY"}}, "unknown option"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, gen.Builtin())
			_, err := runForm(t, f, tt.form)
			tagged := requireKind(t, err, model.KindValidation)
			assert.Contains(t, tagged.Error(), tt.wantErr)
			assert.Empty(t, f.workspaces(t), "validation failures must not provision a workspace")
			assert.Contains(t, f.logs.String(), "generation rejected")
		})
	}
}

func TestRunSelectFailureIsInternal(t *testing.T) {
	f := newFixture(t, gen.Builtin())
	form := url.Values{"api": {"gl=5.0"}, "generator": {"c"}}
	_, err := runForm(t, f, form)
	requireKind(t, err, model.KindInternal)
	assert.Empty(t, f.workspaces(t))

	logs := f.logs.String()
	assert.Contains(t, logs, "generation failed")
	assert.Contains(t, logs, "form=")
	assert.Contains(t, logs, "gl%3D5.0")
}

// failingBackend fails its second Generate call after writing a file.
func failingBackend(calls *int) gen.Backend {
	b := gen.ManifestBackend()
	b.Name = "failing"
	inner := b.New
	b.New = func(dir string, opener gen.Opener) gen.Generator {
		return &failingGenerator{Generator: inner(dir, opener), calls: calls}
	}
	return b
}

type failingGenerator struct {
	gen.Generator
	calls *int
}

func (g *failingGenerator) Generate(spec *model.Specification, fs *model.FeatureSet, cfg gen.Config) error {
	*g.calls++
	if err := g.Generator.Generate(spec, fs, cfg); err != nil {
		return err
	}
	if *g.calls == 2 {
		return errors.New("disk full")
	}
	return nil
}

func TestRunAtomicOutput(t *testing.T) {
	calls := 0
	backends := gen.NewRegistry()
	backends.Register(failingBackend(&calls))
	f := newFixture(t, backends)

	_, err := runForm(t, f, url.Values{"api": {"gl=4.6", "gles2=3.2"}, "generator": {"failing"}})
	tagged := requireKind(t, err, model.KindInternal)
	assert.Contains(t, tagged.Error(), "disk full")
	assert.Equal(t, 2, calls)

	// nothing of the request survives: no directory, so no archive and no record
	assert.Empty(t, f.workspaces(t))
	matches, err := filepath.Glob(filepath.Join(f.work.Root(), "*", packager.ArchiveName))
	require.NoError(t, err)
	assert.Empty(t, matches)
	matches, err = filepath.Glob(filepath.Join(f.work.Root(), "*", request.RecordFile))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

type fakePublisher struct {
	ids []string
	err error
}

func (p *fakePublisher) Publish(_ context.Context, id, archivePath string) error {
	if p.err != nil {
		return p.err
	}
	if _, err := os.Stat(archivePath); err != nil {
		return err
	}
	p.ids = append(p.ids, id)
	return nil
}

func TestRunPublishesAndIndexes(t *testing.T) {
	store, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	pub := &fakePublisher{}

	f := newFixture(t, gen.Builtin(), WithPublisher(pub), WithIndex(store))
	res, err := runForm(t, f, url.Values{"api": {"egl=1.4"}, "generator": {"manifest"}, "options": {"PRETTY"}})
	require.NoError(t, err)

	assert.Equal(t, []string{res.ID}, pub.ids)
	entry, err := store.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "manifest", entry.Generator)
	assert.Equal(t, []string{"egl=1.4"}, entry.APIs)
	assert.Equal(t, 2, entry.Files)
	assert.Contains(t, entry.Record, "options=PRETTY")
}

func TestRunPublishFailureRemovesWorkspace(t *testing.T) {
	f := newFixture(t, gen.Builtin(), WithPublisher(&fakePublisher{err: errors.New("bucket unavailable")}))
	_, err := runForm(t, f, url.Values{"api": {"egl=1.4"}, "generator": {"manifest"}})
	requireKind(t, err, model.KindInternal)
	assert.Empty(t, f.workspaces(t))
}
