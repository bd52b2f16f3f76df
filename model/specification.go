package model

import (
	"regexp"
	"strings"
)

// Specification is the top-level structure of a loadergen specification YAML file.
// One specification describes a family of APIs sharing types, enums and commands.
type Specification struct {
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	APIs        []APIDef       `yaml:"apis" json:"apis"`
	Types       []TypeDef      `yaml:"types,omitempty" json:"types,omitempty"`
	Enums       []EnumDef      `yaml:"enums,omitempty" json:"enums,omitempty"`
	Commands    []CommandDef   `yaml:"commands,omitempty" json:"commands,omitempty"`
	Features    []FeatureDef   `yaml:"features" json:"features"`
	Extensions  []ExtensionDef `yaml:"extensions,omitempty" json:"extensions,omitempty"`
}

// APIDef declares one API of a specification.
type APIDef struct {
	Name     string   `yaml:"name" json:"name"`
	Versions []string `yaml:"versions" json:"versions"`
	Profiles []string `yaml:"profiles,omitempty" json:"profiles,omitempty"`
}

// TypeDef declares a C-level type.
type TypeDef struct {
	Name       string `yaml:"name" json:"name"`
	Definition string `yaml:"definition" json:"definition"`
}

// EnumDef declares a named constant.
type EnumDef struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// CommandDef declares a function exposed by an API.
type CommandDef struct {
	Name    string     `yaml:"name" json:"name"`
	Returns string     `yaml:"returns,omitempty" json:"returns,omitempty"`
	Params  []ParamDef `yaml:"params,omitempty" json:"params,omitempty"`
	Alias   string     `yaml:"alias,omitempty" json:"alias,omitempty"`
}

// ParamDef defines a command parameter.
type ParamDef struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// Require lists the definitions a feature or extension pulls in.
type Require struct {
	Types    []string `yaml:"types,omitempty" json:"types,omitempty"`
	Enums    []string `yaml:"enums,omitempty" json:"enums,omitempty"`
	Commands []string `yaml:"commands,omitempty" json:"commands,omitempty"`
}

// FeatureDef is one API version's worth of definitions.
type FeatureDef struct {
	Name    string  `yaml:"name" json:"name"`
	API     string  `yaml:"api" json:"api"`
	Version string  `yaml:"version" json:"version"`
	Profile string  `yaml:"profile,omitempty" json:"profile,omitempty"`
	Require Require `yaml:"require" json:"require"`
}

// ExtensionDef is an optional extension available to one or more APIs.
type ExtensionDef struct {
	Name    string   `yaml:"name" json:"name"`
	APIs    []string `yaml:"apis" json:"apis"`
	Require Require  `yaml:"require" json:"require"`
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier returns true if s is a valid C identifier.
func IsIdentifier(s string) bool {
	return identPattern.MatchString(s)
}

// API looks up an API definition by name.
func (s *Specification) API(name string) *APIDef {
	for i := range s.APIs {
		if s.APIs[i].Name == name {
			return &s.APIs[i]
		}
	}
	return nil
}

// HasAPI reports whether the specification declares the API.
func (s *Specification) HasAPI(name string) bool {
	return s.API(name) != nil
}

// Extension looks up an extension definition by name.
func (s *Specification) Extension(name string) *ExtensionDef {
	for i := range s.Extensions {
		if s.Extensions[i].Name == name {
			return &s.Extensions[i]
		}
	}
	return nil
}

// IsExtension reports whether ext is an extension available for api.
func (s *Specification) IsExtension(api, ext string) bool {
	e := s.Extension(ext)
	if e == nil {
		return false
	}
	for _, a := range e.APIs {
		if a == api {
			return true
		}
	}
	return false
}

// ExtensionsFor returns the names of all extensions available for api, in declaration order.
func (s *Specification) ExtensionsFor(api string) []string {
	var names []string
	for _, e := range s.Extensions {
		if s.IsExtension(api, e.Name) {
			names = append(names, e.Name)
		}
	}
	return names
}

// Supports reports whether api declares the given version.
func (s *Specification) Supports(api string, version Version) bool {
	a := s.API(api)
	if a == nil {
		return false
	}
	for _, v := range a.Versions {
		parsed, err := ParseVersion(v)
		if err == nil && parsed == version {
			return true
		}
	}
	return false
}

// HasProfile reports whether api declares the profile. The empty profile is always valid.
func (s *Specification) HasProfile(api, profile string) bool {
	if profile == "" {
		return true
	}
	a := s.API(api)
	if a == nil {
		return false
	}
	for _, p := range a.Profiles {
		if p == profile {
			return true
		}
	}
	return false
}

// Command looks up a command definition by name.
func (s *Specification) Command(name string) *CommandDef {
	for i := range s.Commands {
		if s.Commands[i].Name == name {
			return &s.Commands[i]
		}
	}
	return nil
}

// Enum looks up an enum definition by name.
func (s *Specification) Enum(name string) *EnumDef {
	for i := range s.Enums {
		if s.Enums[i].Name == name {
			return &s.Enums[i]
		}
	}
	return nil
}

// Type looks up a type definition by name.
func (s *Specification) Type(name string) *TypeDef {
	for i := range s.Types {
		if s.Types[i].Name == name {
			return &s.Types[i]
		}
	}
	return nil
}

// UpperSnake converts an identifier to UPPER_SNAKE_CASE, mapping '-' and '.' to '_'.
func UpperSnake(s string) string {
	r := strings.NewReplacer("-", "_", ".", "_", " ", "_")
	return strings.ToUpper(r.Replace(s))
}
