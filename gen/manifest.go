package gen

import (
	"encoding/json"
	"fmt"

	"github.com/benn-herrera/loadergen/model"
)

// Manifest backend options.
const (
	OptionPretty       = "PRETTY"
	OptionCommandsOnly = "COMMANDS_ONLY"
)

// ManifestIndexPath lists every feature set a manifest generator has written.
const ManifestIndexPath = "index.json"

var manifestOptions = []OptionInfo{
	{Name: OptionPretty, Description: "Indent JSON output"},
	{Name: OptionCommandsOnly, Description: "Omit types and enums, keep commands and their signatures"},
}

// ManifestBackend returns the backend emitting JSON descriptions of feature sets.
func ManifestBackend() Backend {
	return Backend{
		Name:        "manifest",
		Description: "JSON manifest of the selected features, extensions, types, enums and commands",
		Options:     manifestOptions,
		NewConfig:   func() Config { return NewOptionSet(manifestOptions) },
		New: func(outputDir string, opener Opener) Generator {
			return &ManifestGenerator{outputDir: outputDir, opener: opener}
		},
	}
}

// ManifestGenerator writes one JSON document per feature set plus an index.
// The index is rewritten on every Generate call and covers all feature sets
// generated so far by this instance.
type ManifestGenerator struct {
	outputDir string
	opener    Opener
	entries   []ManifestIndexEntry
}

// Manifest is the document written for one feature set.
type Manifest struct {
	Name          string                 `json:"name"`
	Specification string                 `json:"specification"`
	APIs          []model.FeatureSetInfo `json:"apis"`
	Features      []string               `json:"features"`
	Extensions    []string               `json:"extensions"`
	Types         []model.TypeDef        `json:"types,omitempty"`
	Enums         []model.EnumDef        `json:"enums,omitempty"`
	Commands      []model.CommandDef     `json:"commands"`
	Options       []string               `json:"options"`
}

// ManifestIndexEntry is one line of index.json.
type ManifestIndexEntry struct {
	Name          string `json:"name"`
	Specification string `json:"specification"`
	Path          string `json:"path"`
	Commands      int    `json:"commands"`
}

func (g *ManifestGenerator) Select(spec *model.Specification, api string, version model.Version, profile string, extensions []string, cfg Config) (*model.FeatureSet, error) {
	return SelectFeatures(spec, api, version, profile, extensions)
}

func (g *ManifestGenerator) Generate(spec *model.Specification, fs *model.FeatureSet, cfg Config) error {
	m := Manifest{
		Name:          fs.Name,
		Specification: spec.Name,
		APIs:          fs.Info,
		Features:      fs.Features,
		Extensions:    fs.Extensions,
		Commands:      []model.CommandDef{},
		Options:       cfg.Options(),
	}
	if !cfg.Enabled(OptionCommandsOnly) {
		for _, name := range fs.Types {
			if t := spec.Type(name); t != nil {
				m.Types = append(m.Types, *t)
			}
		}
		for _, name := range fs.Enums {
			if e := spec.Enum(name); e != nil {
				m.Enums = append(m.Enums, *e)
			}
		}
	}
	for _, name := range fs.Commands {
		c := spec.Command(name)
		if c == nil {
			return fmt.Errorf("feature set %s: command %q not defined in specification %q", fs.Name, name, spec.Name)
		}
		m.Commands = append(m.Commands, *c)
	}

	path := LowerName(spec.Name) + "/" + LowerName(fs.Name) + ".json"
	data, err := encodeJSON(m, cfg.Enabled(OptionPretty))
	if err != nil {
		return fmt.Errorf("encoding manifest %s: %w", path, err)
	}
	if err := writeFile(g.opener, path, data); err != nil {
		return err
	}

	g.record(ManifestIndexEntry{Name: fs.Name, Specification: spec.Name, Path: path, Commands: len(m.Commands)})
	index, err := encodeJSON(g.entries, cfg.Enabled(OptionPretty))
	if err != nil {
		return fmt.Errorf("encoding manifest index: %w", err)
	}
	return writeFile(g.opener, ManifestIndexPath, index)
}

// record adds or replaces the index entry for a manifest path.
func (g *ManifestGenerator) record(entry ManifestIndexEntry) {
	for i := range g.entries {
		if g.entries[i].Path == entry.Path {
			g.entries[i] = entry
			return
		}
	}
	g.entries = append(g.entries, entry)
}

func encodeJSON(v any, pretty bool) ([]byte, error) {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
