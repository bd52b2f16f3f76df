// Package server exposes the generation pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/benn-herrera/loadergen/gen"
	"github.com/benn-herrera/loadergen/index"
	"github.com/benn-herrera/loadergen/pipeline"
)

// Runner executes one generation request.
type Runner interface {
	Run(ctx context.Context, form url.Values) (*pipeline.Result, error)
}

// Deliverables resolves deliverable ids to their directories.
type Deliverables interface {
	Path(id string) (string, error)
}

// Index looks up recorded deliverables.
type Index interface {
	Get(ctx context.Context, id string) (*index.Entry, error)
}

// Deps are the collaborators the handlers need. Index and Log may be nil.
type Deps struct {
	Pipeline     Runner
	Specs        pipeline.Specs
	Backends     *gen.Registry
	Deliverables Deliverables
	Index        Index
	Version      string
	Log          *slog.Logger
}

// Response is a generic wrapper for huma responses.
type Response[T any] struct {
	Body T
}

// NewAPI registers every endpoint on mux and returns the huma API.
func NewAPI(mux *http.ServeMux, deps Deps) huma.API {
	api := humago.New(mux, huma.DefaultConfig("loadergen", deps.Version))

	RegisterHealthEndpoint(api, deps)
	RegisterMetadataEndpoint(api, deps)
	RegisterGenerateEndpoint(api, deps)
	RegisterDeliverableEndpoint(api, deps)

	mux.Handle("POST /generate", FormHandler(deps))
	mux.Handle("GET /generated/{id}/", FilesHandler(deps))
	return api
}

// Server is the HTTP server.
type Server struct {
	server *http.Server
	log    *slog.Logger
}

// New returns a server listening on addr.
func New(addr string, deps Deps) *Server {
	mux := http.NewServeMux()
	NewAPI(mux, deps)
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start listens until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.log.Info("HTTP server starting", "address", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// DeliverableURL is where the files of deliverable id are served.
func DeliverableURL(id string) string {
	return "/generated/" + id + "/"
}
