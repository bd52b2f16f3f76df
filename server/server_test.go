package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benn-herrera/loadergen/gen"
	"github.com/benn-herrera/loadergen/index"
	"github.com/benn-herrera/loadergen/logger"
	"github.com/benn-herrera/loadergen/pipeline"
	"github.com/benn-herrera/loadergen/registry"
	"github.com/benn-herrera/loadergen/server"
	"github.com/benn-herrera/loadergen/workspace"
)

type testServer struct {
	mux *http.ServeMux
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	reg, err := registry.LoadDir(filepath.Join("..", "testdata", "specs"))
	require.NoError(t, err)
	specs := registry.NewHolder(reg)
	work, err := workspace.New(filepath.Join(t.TempDir(), "work"))
	require.NoError(t, err)
	store, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	backends := gen.Builtin()
	log := logger.Discard()
	mux := http.NewServeMux()
	server.NewAPI(mux, server.Deps{
		Pipeline:     pipeline.New(specs, backends, work, pipeline.WithIndex(store), pipeline.WithLogger(log)),
		Specs:        specs,
		Backends:     backends,
		Deliverables: work,
		Index:        store,
		Version:      "test",
		Log:          log,
	})
	return &testServer{mux: mux}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	return w
}

func (s *testServer) postForm(form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *testServer) postJSON(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.get("/v1/health")
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"status":"ok"`)
	assert.Contains(t, body, `"version":"test"`)
	assert.Contains(t, body, `"specifications":2`)
}

func TestMetadata(t *testing.T) {
	s := newTestServer(t)
	w := s.get("/v1/metadata")
	require.Equal(t, http.StatusOK, w.Code)

	var body server.MetadataBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	var gl *server.APIMetadata
	for _, spec := range body.Specifications {
		for i := range spec.APIs {
			if spec.APIs[i].Name == "gl" {
				gl = &spec.APIs[i]
			}
		}
	}
	require.NotNil(t, gl)
	assert.Contains(t, gl.Versions, "4.6")
	assert.Contains(t, gl.Profiles, "core")
	assert.Contains(t, gl.Extensions, "GL_KHR_debug")

	var names []string
	for _, g := range body.Generators {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"c", "manifest"}, names)
}

func TestFormGenerate(t *testing.T) {
	s := newTestServer(t)
	w := s.postForm(url.Values{
		"api":       {"gl=4.6", "egl=none"},
		"profile":   {"gl=core"},
		"generator": {"c"},
		"options":   {"HEADER_ONLY"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())

	location := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/generated/"), location)
	id := strings.TrimSuffix(strings.TrimPrefix(location, "/generated/"), "/")
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	w = s.get(location + "include/gl/gl.h")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "LOADERGEN_GL_IMPLEMENTATION")

	w = s.get(location + "loadergen.zip")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.get("/v1/generated/" + id)
	require.Equal(t, http.StatusOK, w.Code)
	var body server.DeliverableBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"gl=4.6"}, body.Record["api"])
	assert.Equal(t, []string{"c"}, body.Record["generator"])
	assert.Equal(t, []string{"HEADER_ONLY"}, body.Record["options"])
	require.NotNil(t, body.Entry)
	assert.Equal(t, "c", body.Entry.Generator)
}

func TestFormGenerateErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.postForm(url.Values{"api": {"gl=none"}, "generator": {"c"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no API selected")

	w = s.postForm(url.Values{"api": {"gl=5.0"}, "generator": {"c"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "5.0")
}

func TestJSONGenerate(t *testing.T) {
	s := newTestServer(t)
	w := s.postJSON(`{"api":["egl=1.5"],"generator":"manifest","extensions":["EGL_KHR_platform_x11"],"options":["pretty"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body server.GenerateBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, server.DeliverableURL(body.ID), body.URL)
	assert.Equal(t, body.URL+"loadergen.zip", body.Archive)

	w = s.get(body.URL + "index.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"egl/egl.json"`)
}

func TestJSONGenerateErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.postJSON(`{"api":["gl=4.6"],"generator":"glad"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `unknown generator`)

	w = s.postJSON(`{"api":["gl=4.6"],"generator":"c","options":["MX","DEBUG"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "mutually exclusive")

	w = s.postJSON(`{"api":["gl=5.0"],"generator":"c"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Generation failed")
	assert.NotContains(t, w.Body.String(), "not a supported version")
}

func TestDeliverableNotFound(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, s.get("/v1/generated/"+uuid.NewString()).Code)
	assert.Equal(t, http.StatusNotFound, s.get("/generated/"+uuid.NewString()+"/loadergen.zip").Code)
	assert.Equal(t, http.StatusNotFound, s.get("/generated/not-an-id/loadergen.zip").Code)
}

type stubRunner struct{ err error }

func (r stubRunner) Run(context.Context, url.Values) (*pipeline.Result, error) {
	return nil, r.err
}

func TestUntaggedErrorsAreInternal(t *testing.T) {
	reg, err := registry.New()
	require.NoError(t, err)
	mux := http.NewServeMux()
	server.NewAPI(mux, server.Deps{
		Pipeline: stubRunner{err: errors.New("boom")},
		Specs:    registry.NewHolder(reg),
		Backends: gen.Builtin(),
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(`{"api":["gl=4.6"],"generator":"c"}`))
	req.Header.Set("Content-Type", "application/json")
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestFormGenerateLogsFailures(t *testing.T) {
	reg, err := registry.New()
	require.NoError(t, err)
	var logs bytes.Buffer
	mux := http.NewServeMux()
	server.NewAPI(mux, server.Deps{
		Pipeline: stubRunner{err: errors.New("disk full")},
		Specs:    registry.NewHolder(reg),
		Backends: gen.Builtin(),
		Log:      slog.New(slog.NewTextHandler(&logs, nil)),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("api=gl%3D4.6&generator=c"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk full")
	assert.Contains(t, logs.String(), "form generation failed")
	assert.Contains(t, logs.String(), "disk full")
}
