package model

// FeatureSet is the resolved content of one or more API selections of a single
// specification. List fields are ordered sets: no duplicates, first-seen order.
type FeatureSet struct {
	Name          string           `json:"name"`
	Specification string           `json:"specification"`
	Info          []FeatureSetInfo `json:"info"`
	Features      []string         `json:"features"`
	Extensions    []string         `json:"extensions"`
	Types         []string         `json:"types"`
	Enums         []string         `json:"enums"`
	Commands      []string         `json:"commands"`
}

// FeatureSetInfo records one API selection that contributed to a FeatureSet.
type FeatureSetInfo struct {
	API     string  `json:"api"`
	Version Version `json:"version"`
	Profile string  `json:"profile,omitempty"`
}

// APIs returns the contributing API names in order.
func (f *FeatureSet) APIs() []string {
	names := make([]string, 0, len(f.Info))
	for _, i := range f.Info {
		names = append(names, i.API)
	}
	return names
}

// HasExtension reports whether the feature set enables ext.
func (f *FeatureSet) HasExtension(ext string) bool {
	return contains(f.Extensions, ext)
}

// HasCommand reports whether the feature set includes the command.
func (f *FeatureSet) HasCommand(name string) bool {
	return contains(f.Commands, name)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// OrderedSet accumulates unique strings in first-seen order.
type OrderedSet struct {
	seen  map[string]bool
	items []string
}

// Add appends values not already present.
func (o *OrderedSet) Add(values ...string) {
	if o.seen == nil {
		o.seen = make(map[string]bool)
	}
	for _, v := range values {
		if o.seen[v] {
			continue
		}
		o.seen[v] = true
		o.items = append(o.items, v)
	}
}

// Items returns the accumulated values. The result is never nil.
func (o *OrderedSet) Items() []string {
	if o.items == nil {
		return []string{}
	}
	return o.items
}
