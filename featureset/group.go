// Package featureset groups requested APIs by specification, resolves each
// request into feature sets through a generator, and merges them on demand.
package featureset

import (
	"github.com/benn-herrera/loadergen/model"
)

// SpecSource is the part of the specification registry the builder needs.
type SpecSource interface {
	SpecificationNameForAPI(api string) (string, error)
	Specification(name string) (*model.Specification, error)
}

// Group partitions apis by owning specification. Groups appear in the order
// their first API was submitted and keep submission order within a group,
// whether or not the entries were adjacent.
func Group(specs SpecSource, apis []model.APIVersion) ([]model.SpecificationGroup, error) {
	var groups []model.SpecificationGroup
	index := map[string]int{}
	for _, av := range apis {
		name, err := specs.SpecificationNameForAPI(av.API)
		if err != nil {
			return nil, model.WrapInternal(err, "resolving api %s", av.API)
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, model.SpecificationGroup{Specification: name})
		}
		groups[i].APIs = append(groups[i].APIs, av)
	}
	return groups, nil
}
