package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/benn-herrera/loadergen/gen"
)

// APIMetadata describes one selectable API.
type APIMetadata struct {
	Name       string   `json:"name" example:"gl"`
	Versions   []string `json:"versions"`
	Profiles   []string `json:"profiles,omitempty"`
	Extensions []string `json:"extensions,omitempty"`
}

// SpecificationMetadata describes one loaded specification.
type SpecificationMetadata struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	APIs        []APIMetadata `json:"apis"`
}

// GeneratorMetadata describes one generator backend.
type GeneratorMetadata struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Options     []gen.OptionInfo `json:"options"`
}

type MetadataBody struct {
	Specifications []SpecificationMetadata `json:"specifications"`
	Generators     []GeneratorMetadata     `json:"generators"`
}

// RegisterMetadataEndpoint registers the listing used to build request forms.
func RegisterMetadataEndpoint(api huma.API, deps Deps) {
	huma.Register(api, huma.Operation{
		OperationID: "get-metadata",
		Method:      http.MethodGet,
		Path:        "/v1/metadata",
		Summary:     "List specifications and generators",
		Description: "Lists every selectable API with its versions, profiles and extensions, and every generator with its options",
		Tags:        []string{"metadata"},
	}, func(_ context.Context, _ *struct{}) (*Response[MetadataBody], error) {
		return &Response[MetadataBody]{Body: buildMetadata(deps)}, nil
	})
}

func buildMetadata(deps Deps) MetadataBody {
	body := MetadataBody{
		Specifications: []SpecificationMetadata{},
		Generators:     []GeneratorMetadata{},
	}
	for _, spec := range deps.Specs.Current().Specifications() {
		sm := SpecificationMetadata{Name: spec.Name, Description: spec.Description}
		for _, a := range spec.APIs {
			sm.APIs = append(sm.APIs, APIMetadata{
				Name:       a.Name,
				Versions:   a.Versions,
				Profiles:   a.Profiles,
				Extensions: spec.ExtensionsFor(a.Name),
			})
		}
		body.Specifications = append(body.Specifications, sm)
	}
	for _, b := range deps.Backends.Backends() {
		body.Generators = append(body.Generators, GeneratorMetadata{
			Name:        b.Name,
			Description: b.Description,
			Options:     b.Options,
		})
	}
	return body
}
