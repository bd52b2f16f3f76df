package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/benn-herrera/loadergen/model"
	"github.com/benn-herrera/loadergen/packager"
	"github.com/benn-herrera/loadergen/request"
)

// internalMessage is all a client learns about an internal failure. The
// details are in the server log.
const internalMessage = "Generation failed"

type GenerateInput struct {
	Body request.Submission
}

type GenerateBody struct {
	ID      string `json:"id" format:"uuid" doc:"Deliverable id"`
	URL     string `json:"url" doc:"Directory listing of the generated files"`
	Archive string `json:"archive" doc:"Zip archive of the generated files"`
}

// RegisterGenerateEndpoint registers the JSON generation endpoint.
func RegisterGenerateEndpoint(api huma.API, deps Deps) {
	huma.Register(api, huma.Operation{
		OperationID:   "generate",
		Method:        http.MethodPost,
		Path:          "/v1/generate",
		Summary:       "Generate a loader",
		Description:   "Generates loader sources for the selected APIs and packages them as a deliverable",
		Tags:          []string{"generate"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *GenerateInput) (*Response[GenerateBody], error) {
		res, err := deps.Pipeline.Run(ctx, input.Body.Values())
		if err != nil {
			if model.IsValidation(err) {
				return nil, huma.Error400BadRequest(err.Error())
			}
			return nil, huma.Error500InternalServerError(internalMessage)
		}
		url := DeliverableURL(res.ID)
		return &Response[GenerateBody]{
			Body: GenerateBody{ID: res.ID, URL: url, Archive: url + packager.ArchiveName},
		}, nil
	})
}

// FormHandler accepts the web form and redirects to the generated files.
func FormHandler(deps Deps) http.HandlerFunc {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Malformed form", http.StatusBadRequest)
			return
		}
		res, err := deps.Pipeline.Run(r.Context(), r.PostForm)
		if err != nil {
			if model.IsValidation(err) {
				log.Info("form rejected", "error", err)
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			log.Error("form generation failed", "error", err)
			http.Error(w, internalMessage, http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, DeliverableURL(res.ID), http.StatusSeeOther)
	}
}
