package featureset

import (
	"fmt"

	"github.com/benn-herrera/loadergen/gen"
	"github.com/benn-herrera/loadergen/model"
)

// Builder resolves specification groups into feature sets.
type Builder struct {
	Specs     SpecSource
	Generator gen.Generator
	Config    gen.Config
}

// Build returns one feature set per API of group, in submission order.
// Unknown specifications and APIs are validation errors; any failure of the
// generator's selection is an internal error carrying the cause.
func (b *Builder) Build(group model.SpecificationGroup, sel *model.Selection) ([]*model.FeatureSet, error) {
	spec, err := b.Specs.Specification(group.Specification)
	if err != nil {
		return nil, model.WrapInternal(err, "loading specification %s", group.Specification)
	}

	sets := make([]*model.FeatureSet, 0, len(group.APIs))
	for _, av := range group.APIs {
		if !spec.HasAPI(av.API) {
			return nil, model.Validationf("unknown API %q in specification %q", av.API, spec.Name)
		}
		fs, err := b.Generator.Select(spec, av.API, av.Version, sel.Profile(av.API), FilterExtensions(spec, av.API, sel.Extensions), b.Config)
		if err != nil {
			return nil, &model.Error{
				Kind:    model.KindInternal,
				Message: fmt.Sprintf("selecting %s", av),
				Err:     err,
			}
		}
		sets = append(sets, fs)
	}
	return sets, nil
}

// FilterExtensions keeps the extensions spec makes available for api, in request order.
func FilterExtensions(spec *model.Specification, api string, extensions []string) []string {
	filtered := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		if spec.IsExtension(api, ext) {
			filtered = append(filtered, ext)
		}
	}
	return filtered
}
