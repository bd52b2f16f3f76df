package loader

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// schemaJSON is the embedded JSON Schema for specification files.
var schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://loadergen.dev/schemas/specification/v1",
  "title": "loadergen Specification",
  "description": "Schema for loadergen API specification YAML files.",
  "type": "object",
  "required": ["name", "apis", "features"],
  "additionalProperties": false,
  "properties": {
    "name": { "type": "string", "pattern": "^[a-z][a-z0-9_]*$" },
    "description": { "type": "string" },
    "apis": {
      "type": "array",
      "items": { "$ref": "#/$defs/api_definition" },
      "minItems": 1
    },
    "types": {
      "type": "array",
      "items": { "$ref": "#/$defs/type_definition" }
    },
    "enums": {
      "type": "array",
      "items": { "$ref": "#/$defs/enum_definition" }
    },
    "commands": {
      "type": "array",
      "items": { "$ref": "#/$defs/command_definition" }
    },
    "features": {
      "type": "array",
      "items": { "$ref": "#/$defs/feature_definition" },
      "minItems": 1
    },
    "extensions": {
      "type": "array",
      "items": { "$ref": "#/$defs/extension_definition" }
    }
  },
  "$defs": {
    "identifier": { "type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_]*$" },
    "version": { "type": "string", "pattern": "^\\d+(\\.\\d+)?$" },
    "api_definition": {
      "type": "object",
      "required": ["name", "versions"],
      "additionalProperties": false,
      "properties": {
        "name": { "type": "string", "pattern": "^[a-z][a-z0-9_]*$" },
        "versions": {
          "type": "array",
          "items": { "$ref": "#/$defs/version" },
          "minItems": 1,
          "uniqueItems": true
        },
        "profiles": {
          "type": "array",
          "items": { "type": "string", "pattern": "^[a-z][a-z0-9_]*$" },
          "uniqueItems": true
        }
      }
    },
    "type_definition": {
      "type": "object",
      "required": ["name", "definition"],
      "additionalProperties": false,
      "properties": {
        "name": { "$ref": "#/$defs/identifier" },
        "definition": { "type": "string", "minLength": 1 }
      }
    },
    "enum_definition": {
      "type": "object",
      "required": ["name", "value"],
      "additionalProperties": false,
      "properties": {
        "name": { "$ref": "#/$defs/identifier" },
        "value": { "type": "string", "minLength": 1 }
      }
    },
    "command_definition": {
      "type": "object",
      "required": ["name"],
      "additionalProperties": false,
      "properties": {
        "name": { "$ref": "#/$defs/identifier" },
        "returns": { "type": "string" },
        "alias": { "$ref": "#/$defs/identifier" },
        "params": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name", "type"],
            "additionalProperties": false,
            "properties": {
              "name": { "$ref": "#/$defs/identifier" },
              "type": { "type": "string", "minLength": 1 }
            }
          }
        }
      }
    },
    "require": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "types": { "type": "array", "items": { "$ref": "#/$defs/identifier" } },
        "enums": { "type": "array", "items": { "$ref": "#/$defs/identifier" } },
        "commands": { "type": "array", "items": { "$ref": "#/$defs/identifier" } }
      }
    },
    "feature_definition": {
      "type": "object",
      "required": ["name", "api", "version"],
      "additionalProperties": false,
      "properties": {
        "name": { "$ref": "#/$defs/identifier" },
        "api": { "type": "string" },
        "version": { "$ref": "#/$defs/version" },
        "profile": { "type": "string" },
        "require": { "$ref": "#/$defs/require" }
      }
    },
    "extension_definition": {
      "type": "object",
      "required": ["name", "apis"],
      "additionalProperties": false,
      "properties": {
        "name": { "$ref": "#/$defs/identifier" },
        "apis": {
          "type": "array",
          "items": { "type": "string" },
          "minItems": 1,
          "uniqueItems": true
        },
        "require": { "$ref": "#/$defs/require" }
      }
    }
  }
}`

var compiledSchema *jsonschema.Schema

func init() {
	var schemaDoc interface{}
	if err := json.Unmarshal([]byte(schemaJSON), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to decode schema JSON: %v", err))
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add schema resource: %v", err))
	}
	var err error
	compiledSchema, err = c.Compile("schema.json")
	if err != nil {
		panic(fmt.Sprintf("failed to compile schema: %v", err))
	}
}

// SchemaJSON returns the specification JSON Schema.
func SchemaJSON() string {
	return schemaJSON
}

// ValidateSchema validates raw YAML bytes against the specification JSON Schema.
func ValidateSchema(yamlData []byte) error {
	var raw interface{}
	if err := yaml.Unmarshal(yamlData, &raw); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	if err := compiledSchema.Validate(convertYAMLToJSON(raw)); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// convertYAMLToJSON converts YAML-parsed values to the types the schema
// validator expects. Unquoted versions such as 4.6 parse as floats, so they
// are rendered back into strings and validated as such.
func convertYAMLToJSON(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for k, val := range v {
			result[k] = convertYAMLToJSON(val)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, val := range v {
			result[i] = convertYAMLToJSON(val)
		}
		return result
	case int:
		return fmt.Sprint(v)
	case int64:
		return fmt.Sprint(v)
	case float64:
		return fmt.Sprint(v)
	default:
		return v
	}
}

// ValidateSchemaJSON validates a JSON document against the schema.
func ValidateSchemaJSON(jsonData []byte) error {
	var raw interface{}
	if err := json.Unmarshal(jsonData, &raw); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	if err := compiledSchema.Validate(raw); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
