package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// configSchema is the structural contract for config files. Semantic
// rules that need arithmetic (weight sums) live in Config.Validate.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "analyzers": {
      "type": "object",
      "properties": {
        "quality":      {"$ref": "#/$defs/analyzer"},
        "coverage":     {"$ref": "#/$defs/analyzer"},
        "architecture": {"$ref": "#/$defs/analyzer"},
        "security":     {"$ref": "#/$defs/analyzer"}
      },
      "additionalProperties": false
    },
    "scoring": {
      "type": "object",
      "properties": {
        "weights": {
          "type": "object",
          "additionalProperties": {"type": "number", "minimum": 0, "maximum": 1}
        },
        "passing_threshold": {"type": "number", "minimum": 0, "maximum": 100}
      },
      "additionalProperties": false
    },
    "exclude": {
      "type": "object",
      "properties": {
        "patterns":   {"type": "array", "items": {"type": "string"}},
        "extensions": {"type": "array", "items": {"type": "string"}},
        "dirs":       {"type": "array", "items": {"type": "string"}},
        "gitignore":  {"type": "boolean"}
      },
      "additionalProperties": false
    },
    "cache": {
      "type": "object",
      "properties": {
        "enabled":     {"type": "boolean"},
        "dir":         {"type": "string"},
        "ttl_hours":   {"type": "integer", "minimum": 0},
        "max_entries": {"type": "integer", "minimum": 0}
      },
      "additionalProperties": false
    },
    "baseline": {
      "type": "object",
      "properties": {
        "path": {"type": "string"}
      },
      "additionalProperties": false
    },
    "output": {
      "type": "object",
      "properties": {
        "format":  {"type": "string", "enum": ["text", "json", "markdown"]},
        "color":   {"type": "boolean"},
        "verbose": {"type": "boolean"}
      },
      "additionalProperties": false
    },
    "monitor": {
      "type": "object",
      "properties": {
        "max_run_seconds":    {"type": "integer", "minimum": 0},
        "min_cache_hit_rate": {"type": "number", "minimum": 0, "maximum": 1}
      },
      "additionalProperties": false
    }
  },
  "additionalProperties": false,
  "$defs": {
    "analyzer": {
      "type": "object",
      "properties": {
        "enabled":         {"type": "boolean"},
        "timeout_seconds": {"type": "integer", "minimum": 1},
        "retry_attempts":  {"type": "integer", "minimum": 0, "maximum": 5},
        "thresholds": {
          "type": "object",
          "additionalProperties": {"type": "number"}
        }
      },
      "additionalProperties": false
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(configSchema)))
	if err != nil {
		panic(fmt.Sprintf("config schema is not valid JSON: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("verdict-config.json", doc); err != nil {
		panic(fmt.Sprintf("config schema rejected: %v", err))
	}
	schema, err := compiler.Compile("verdict-config.json")
	if err != nil {
		panic(fmt.Sprintf("config schema does not compile: %v", err))
	}
	return schema
}

// validateSchema checks a raw decoded config tree against the schema.
// The tree is round-tripped through JSON so provider-specific number
// types normalize to what the validator expects.
func validateSchema(raw map[string]any) error {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encoding config for validation: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("decoding config for validation: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
