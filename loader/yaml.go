package loader

import (
	"fmt"
	"os"

	"github.com/benn-herrera/loadergen/model"
	"gopkg.in/yaml.v3"
)

// LoadSpecification reads and parses a YAML specification file.
// It validates the YAML against the JSON Schema before unmarshalling.
func LoadSpecification(path string) (*model.Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading specification: %w", err)
	}
	spec, err := ParseSpecification(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// ParseSpecification schema-validates and parses specification YAML.
func ParseSpecification(data []byte) (*model.Specification, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	return ParseSpecificationNoValidate(data)
}

// ParseSpecificationNoValidate parses without schema validation.
func ParseSpecificationNoValidate(data []byte) (*model.Specification, error) {
	var spec model.Specification
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing specification: %w", err)
	}
	return &spec, nil
}
