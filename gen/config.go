package gen

import (
	"sort"
	"strings"

	"github.com/benn-herrera/loadergen/model"
)

// Config is the mutable option set of one generation request.
type Config interface {
	// Set records a boolean option. Unknown options are accepted here and
	// rejected by Validate.
	Set(option string, value bool)

	// Enabled reports whether option is set to true.
	Enabled(option string) bool

	// Options returns the enabled options, normalized and sorted.
	Options() []string

	// Validate fails with a validation error when options are unknown or
	// their combination is inconsistent.
	Validate() error
}

// OptionInfo documents one option a backend understands.
type OptionInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Rule constrains an option: when Option is enabled every Requires option
// must be enabled and no Excludes option may be.
type Rule struct {
	Option   string
	Requires []string
	Excludes []string
}

// OptionSet is the Config implementation shared by the built-in backends.
type OptionSet struct {
	known  map[string]bool
	rules  []Rule
	values map[string]bool
}

var _ Config = (*OptionSet)(nil)

// NewOptionSet returns an empty option set accepting the given options.
func NewOptionSet(options []OptionInfo, rules ...Rule) *OptionSet {
	known := make(map[string]bool, len(options))
	for _, o := range options {
		known[NormalizeOption(o.Name)] = true
	}
	return &OptionSet{known: known, rules: rules, values: make(map[string]bool)}
}

// NormalizeOption maps "header-only", "Header Only" and "HEADER_ONLY" to the same key.
func NormalizeOption(option string) string {
	return model.UpperSnake(strings.TrimSpace(option))
}

func (o *OptionSet) Set(option string, value bool) {
	o.values[NormalizeOption(option)] = value
}

func (o *OptionSet) Enabled(option string) bool {
	return o.values[NormalizeOption(option)]
}

func (o *OptionSet) Options() []string {
	var out []string
	for name, on := range o.values {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (o *OptionSet) Validate() error {
	var unknown []string
	for name := range o.values {
		if !o.known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return model.Validationf("unknown option(s): %s", strings.Join(unknown, ", "))
	}

	for _, r := range o.rules {
		if !o.Enabled(r.Option) {
			continue
		}
		for _, req := range r.Requires {
			if !o.Enabled(req) {
				return model.Validationf("option %s requires %s", NormalizeOption(r.Option), NormalizeOption(req))
			}
		}
		for _, ex := range r.Excludes {
			if o.Enabled(ex) {
				return model.Validationf("options %s and %s are mutually exclusive", NormalizeOption(r.Option), NormalizeOption(ex))
			}
		}
	}
	return nil
}
