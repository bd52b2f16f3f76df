package validate

import (
	"fmt"
	"strings"

	"github.com/benn-herrera/loadergen/model"
)

// ValidationError represents a single semantic validation error.
type ValidationError struct {
	Path    string // e.g., "features[2].require.commands[0]"
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationResult holds all validation errors.
type ValidationResult struct {
	Errors []ValidationError
}

func (r *ValidationResult) addError(path, message string) {
	r.Errors = append(r.Errors, ValidationError{Path: path, Message: message})
}

func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) Error() string {
	if r.IsValid() {
		return ""
	}
	var msgs []string
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n")
}

// Validate performs semantic validation on a parsed specification.
func Validate(spec *model.Specification) *ValidationResult {
	result := &ValidationResult{}

	apis := make(map[string]*model.APIDef)
	for i := range spec.APIs {
		api := &spec.APIs[i]
		path := fmt.Sprintf("apis[%d]", i)
		if _, dup := apis[api.Name]; dup {
			result.addError(path+".name", fmt.Sprintf("duplicate api name %q", api.Name))
			continue
		}
		apis[api.Name] = api
		for j, v := range api.Versions {
			if _, err := model.ParseVersion(v); err != nil {
				result.addError(fmt.Sprintf("%s.versions[%d]", path, j), err.Error())
			}
		}
	}

	types := collectNames(result, "types", len(spec.Types), func(i int) string { return spec.Types[i].Name })
	enums := collectNames(result, "enums", len(spec.Enums), func(i int) string { return spec.Enums[i].Name })
	commands := collectNames(result, "commands", len(spec.Commands), func(i int) string { return spec.Commands[i].Name })

	for i, cmd := range spec.Commands {
		if cmd.Alias != "" && !commands[cmd.Alias] {
			result.addError(fmt.Sprintf("commands[%d].alias", i), fmt.Sprintf("alias target %q not defined in commands section", cmd.Alias))
		}
	}

	featureNames := make(map[string]bool)
	for i, f := range spec.Features {
		path := fmt.Sprintf("features[%d]", i)
		if featureNames[f.Name] {
			result.addError(path+".name", fmt.Sprintf("duplicate feature name %q", f.Name))
		}
		featureNames[f.Name] = true

		api, ok := apis[f.API]
		if !ok {
			result.addError(path+".api", fmt.Sprintf("api %q not defined in apis section", f.API))
		} else {
			validateFeatureVersion(result, path, &f, api)
			if f.Profile != "" && !contains(api.Profiles, f.Profile) {
				result.addError(path+".profile", fmt.Sprintf("profile %q not declared by api %q", f.Profile, f.API))
			}
		}
		validateRequire(result, path+".require", &f.Require, types, enums, commands)
	}

	extNames := make(map[string]bool)
	for i, e := range spec.Extensions {
		path := fmt.Sprintf("extensions[%d]", i)
		if extNames[e.Name] {
			result.addError(path+".name", fmt.Sprintf("duplicate extension name %q", e.Name))
		}
		if featureNames[e.Name] {
			result.addError(path+".name", fmt.Sprintf("extension name %q collides with a feature", e.Name))
		}
		extNames[e.Name] = true

		for j, a := range e.APIs {
			if _, ok := apis[a]; !ok {
				result.addError(fmt.Sprintf("%s.apis[%d]", path, j), fmt.Sprintf("api %q not defined in apis section", a))
			}
		}
		validateRequire(result, path+".require", &e.Require, types, enums, commands)
	}

	return result
}

func collectNames(result *ValidationResult, section string, n int, name func(int) string) map[string]bool {
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		nm := name(i)
		if seen[nm] {
			result.addError(fmt.Sprintf("%s[%d].name", section, i), fmt.Sprintf("duplicate %s name %q", strings.TrimSuffix(section, "s"), nm))
		}
		seen[nm] = true
	}
	return seen
}

func validateFeatureVersion(result *ValidationResult, path string, f *model.FeatureDef, api *model.APIDef) {
	v, err := model.ParseVersion(f.Version)
	if err != nil {
		result.addError(path+".version", err.Error())
		return
	}
	for _, declared := range api.Versions {
		if dv, err := model.ParseVersion(declared); err == nil && dv == v {
			return
		}
	}
	result.addError(path+".version", fmt.Sprintf("version %s not declared by api %q", v, api.Name))
}

func validateRequire(result *ValidationResult, path string, req *model.Require, types, enums, commands map[string]bool) {
	check := func(kind string, names []string, defined map[string]bool) {
		for i, n := range names {
			if !defined[n] {
				result.addError(fmt.Sprintf("%s.%s[%d]", path, kind, i), fmt.Sprintf("%s %q not defined in %s section", strings.TrimSuffix(kind, "s"), n, kind))
			}
		}
	}
	check("types", req.Types, types)
	check("enums", req.Enums, enums)
	check("commands", req.Commands, commands)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
