// Package request turns a submitted generation form into a typed Selection and
// back into the reproducibility record stored with each deliverable.
package request

import (
	"net/url"
	"strings"

	"github.com/benn-herrera/loadergen/model"
)

// Form field names.
const (
	FieldAPI        = "api"
	FieldProfile    = "profile"
	FieldGenerator  = "generator"
	FieldExtensions = "extensions"
	FieldExtension  = "extension"
	FieldOptions    = "options"
	FieldOption     = "option"
)

// OptionMerge is the reserved option asking for feature sets of one
// specification to be merged. It never reaches a generator config.
const OptionMerge = "MERGE"

// None is the sentinel value meaning "not requested".
const None = "none"

// Submission is the structured form of a generation request, as accepted by
// the JSON API. Values has the same meaning as the web form.
type Submission struct {
	API        []string `json:"api" doc:"API selections formatted as name=version, for example gl=4.6"`
	Profile    []string `json:"profile,omitempty" doc:"Profiles formatted as api=profile, for example gl=core"`
	Generator  string   `json:"generator" doc:"Generator backend name" example:"c"`
	Extensions []string `json:"extensions,omitempty" doc:"Extension names"`
	Options    []string `json:"options,omitempty" doc:"Generator options; MERGE merges feature sets of one specification"`
}

// Values returns the submission as form values.
func (s Submission) Values() url.Values {
	v := url.Values{}
	for _, a := range s.API {
		v.Add(FieldAPI, a)
	}
	for _, p := range s.Profile {
		v.Add(FieldProfile, p)
	}
	if s.Generator != "" {
		v.Set(FieldGenerator, s.Generator)
	}
	for _, e := range s.Extensions {
		v.Add(FieldExtensions, e)
	}
	for _, o := range s.Options {
		v.Add(FieldOptions, o)
	}
	return v
}

// IsNone reports whether s is the "none" sentinel, ignoring case and surrounding space.
func IsNone(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), None)
}

// Decode parses a submitted form into a Selection. It fails with a
// validation error when the form is malformed or selects no API.
func Decode(form url.Values) (*model.Selection, error) {
	sel := &model.Selection{Profiles: map[string]string{}}

	apis, err := decodeAPIs(form[FieldAPI])
	if err != nil {
		return nil, err
	}
	sel.APIs = apis

	for _, entry := range form[FieldProfile] {
		name, profile, err := splitPair(FieldProfile, entry)
		if err != nil {
			return nil, err
		}
		if profile == "" || IsNone(profile) {
			delete(sel.Profiles, name)
			continue
		}
		sel.Profiles[name] = profile
	}

	sel.Generator = strings.TrimSpace(form.Get(FieldGenerator))

	var exts model.OrderedSet
	for _, e := range fieldValues(form, FieldExtensions, FieldExtension) {
		if e = strings.TrimSpace(e); e != "" {
			exts.Add(e)
		}
	}
	sel.Extensions = exts.Items()

	var opts model.OrderedSet
	for _, o := range fieldValues(form, FieldOptions, FieldOption) {
		o = strings.TrimSpace(o)
		switch {
		case o == "":
		case o == OptionMerge:
			sel.Merge = true
		default:
			opts.Add(o)
		}
	}
	sel.Options = opts.Items()

	if len(sel.APIs) == 0 {
		return nil, model.Validationf("no API selected")
	}
	if sel.Generator == "" {
		return nil, model.Validationf("no generator selected")
	}
	return sel, nil
}

// decodeAPIs parses api entries. A repeated name keeps the position of its
// first entry and the value of its last one.
func decodeAPIs(entries []string) ([]model.APIVersion, error) {
	var order []string
	values := map[string]string{}
	for _, entry := range entries {
		name, version, err := splitPair(FieldAPI, entry)
		if err != nil {
			return nil, err
		}
		if _, seen := values[name]; !seen {
			order = append(order, name)
		}
		values[name] = version
	}

	apis := make([]model.APIVersion, 0, len(order))
	for _, name := range order {
		raw := values[name]
		if IsNone(raw) {
			continue
		}
		v, err := model.ParseVersion(raw)
		if err != nil {
			return nil, model.Validationf("api %s: invalid version %q", name, strings.TrimSpace(raw))
		}
		apis = append(apis, model.APIVersion{API: name, Version: v})
	}
	return apis, nil
}

func splitPair(field, entry string) (string, string, error) {
	name, value, ok := strings.Cut(entry, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", model.Validationf("malformed %s entry %q, expected name=value", field, entry)
	}
	return name, strings.TrimSpace(value), nil
}

// fieldValues returns the values of several field names in order.
func fieldValues(form url.Values, fields ...string) []string {
	var out []string
	for _, f := range fields {
		out = append(out, form[f]...)
	}
	return out
}
