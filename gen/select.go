package gen

import (
	"fmt"

	"github.com/benn-herrera/loadergen/model"
)

// SelectFeatures resolves an API selection against spec. The result holds every
// feature of api up to version that applies to profile, the requested
// extensions, and the types, enums and commands they require in first-seen order.
func SelectFeatures(spec *model.Specification, api string, version model.Version, profile string, extensions []string) (*model.FeatureSet, error) {
	if !spec.HasAPI(api) {
		return nil, fmt.Errorf("api %q is not part of specification %q", api, spec.Name)
	}
	if !spec.Supports(api, version) {
		return nil, fmt.Errorf("%s %s is not a supported version", api, version)
	}
	if !spec.HasProfile(api, profile) {
		return nil, fmt.Errorf("profile %q is not available for %s", profile, api)
	}

	var features, exts, types, enums, commands model.OrderedSet
	require := func(r model.Require) {
		types.Add(r.Types...)
		enums.Add(r.Enums...)
		commands.Add(r.Commands...)
	}

	for _, f := range spec.Features {
		if f.API != api {
			continue
		}
		fv, err := model.ParseVersion(f.Version)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", f.Name, err)
		}
		if version.Less(fv) {
			continue
		}
		if f.Profile != "" && f.Profile != profile {
			continue
		}
		features.Add(f.Name)
		require(f.Require)
	}

	for _, name := range extensions {
		if !spec.IsExtension(api, name) {
			return nil, fmt.Errorf("extension %q is not available for %s", name, api)
		}
		exts.Add(name)
		require(spec.Extension(name).Require)
	}

	return &model.FeatureSet{
		Name:          api,
		Specification: spec.Name,
		Info:          []model.FeatureSetInfo{{API: api, Version: version, Profile: profile}},
		Features:      features.Items(),
		Extensions:    exts.Items(),
		Types:         types.Items(),
		Enums:         enums.Items(),
		Commands:      commands.Items(),
	}, nil
}

// requireOf returns the requirements of a feature or extension by name.
func requireOf(spec *model.Specification, name string) model.Require {
	for _, f := range spec.Features {
		if f.Name == name {
			return f.Require
		}
	}
	if e := spec.Extension(name); e != nil {
		return e.Require
	}
	return model.Require{}
}
