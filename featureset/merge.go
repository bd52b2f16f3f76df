package featureset

import (
	"github.com/benn-herrera/loadergen/model"
)

// Merge combines feature sets of one specification. A single input is
// returned unchanged. Otherwise list fields become ordered unions, Info is
// concatenated in input order and Name and Specification come from the last
// input.
func Merge(sets ...*model.FeatureSet) *model.FeatureSet {
	switch len(sets) {
	case 0:
		return nil
	case 1:
		return sets[0]
	}

	var features, extensions, types, enums, commands model.OrderedSet
	merged := &model.FeatureSet{}
	for _, fs := range sets {
		merged.Name = fs.Name
		merged.Specification = fs.Specification
		merged.Info = append(merged.Info, fs.Info...)
		features.Add(fs.Features...)
		extensions.Add(fs.Extensions...)
		types.Add(fs.Types...)
		enums.Add(fs.Enums...)
		commands.Add(fs.Commands...)
	}
	merged.Features = features.Items()
	merged.Extensions = extensions.Items()
	merged.Types = types.Items()
	merged.Enums = enums.Items()
	merged.Commands = commands.Items()
	return merged
}

// Resolve returns the feature sets to generate for one specification group:
// the input unchanged, or a single merged set when merge is requested and
// there is more than one.
func Resolve(sets []*model.FeatureSet, merge bool) []*model.FeatureSet {
	if !merge || len(sets) < 2 {
		return sets
	}
	return []*model.FeatureSet{Merge(sets...)}
}
