package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/benn-herrera/loadergen/index"
	"github.com/benn-herrera/loadergen/packager"
	"github.com/benn-herrera/loadergen/request"
)

type DeliverableInput struct {
	ID string `path:"id" doc:"Deliverable id" format:"uuid"`
}

type DeliverableBody struct {
	ID      string              `json:"id"`
	URL     string              `json:"url"`
	Archive string              `json:"archive"`
	Record  map[string][]string `json:"record" doc:"The submission that produced the deliverable, for reloading the form"`
	Entry   *index.Entry        `json:"entry,omitempty" doc:"Index entry, when the index is enabled"`
}

// RegisterDeliverableEndpoint registers the deliverable lookup endpoint.
func RegisterDeliverableEndpoint(api huma.API, deps Deps) {
	huma.Register(api, huma.Operation{
		OperationID: "get-deliverable",
		Method:      http.MethodGet,
		Path:        "/v1/generated/{id}",
		Summary:     "Get deliverable details",
		Description: "Returns the submission recorded with a deliverable and its index entry",
		Tags:        []string{"generate"},
	}, func(ctx context.Context, input *DeliverableInput) (*Response[DeliverableBody], error) {
		dir, err := deps.Deliverables.Path(input.ID)
		if err != nil {
			return nil, huma.Error404NotFound("Deliverable not found")
		}
		raw, err := os.ReadFile(filepath.Join(dir, request.RecordFile))
		if err != nil {
			// the record is written last, so a missing one means unfinished
			if errors.Is(err, os.ErrNotExist) {
				return nil, huma.Error404NotFound("Deliverable not found")
			}
			return nil, huma.Error500InternalServerError("Failed to read deliverable record", err)
		}
		record, err := request.DecodeRecord(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to decode deliverable record", err)
		}

		url := DeliverableURL(input.ID)
		body := DeliverableBody{
			ID:      input.ID,
			URL:     url,
			Archive: url + packager.ArchiveName,
			Record:  record,
		}
		if deps.Index != nil {
			entry, err := deps.Index.Get(ctx, input.ID)
			switch {
			case err == nil:
				body.Entry = entry
			case !errors.Is(err, index.ErrNotFound):
				return nil, huma.Error500InternalServerError("Failed to read deliverable index", err)
			}
		}
		return &Response[DeliverableBody]{Body: body}, nil
	})
}

// FilesHandler serves the files of finalized deliverables.
func FilesHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		dir, err := deps.Deliverables.Path(id)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if _, err := os.Stat(filepath.Join(dir, request.RecordFile)); err != nil {
			http.NotFound(w, r)
			return
		}
		http.StripPrefix("/generated/"+id, http.FileServer(http.Dir(dir))).ServeHTTP(w, r)
	}
}
