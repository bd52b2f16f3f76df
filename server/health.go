package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type HealthBody struct {
	Status         string `json:"status" example:"ok" doc:"Health status"`
	Version        string `json:"version" doc:"Service version"`
	Specifications int    `json:"specifications" doc:"Number of loaded specifications"`
}

// RegisterHealthEndpoint registers the health check endpoint.
func RegisterHealthEndpoint(api huma.API, deps Deps) {
	huma.Register(api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        "/v1/health",
		Summary:     "Health check",
		Tags:        []string{"health"},
	}, func(_ context.Context, _ *struct{}) (*Response[HealthBody], error) {
		return &Response[HealthBody]{
			Body: HealthBody{
				Status:         "ok",
				Version:        deps.Version,
				Specifications: len(deps.Specs.Current().Names()),
			},
		}, nil
	})
}
