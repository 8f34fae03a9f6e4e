package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

//go:generate go run ../tools/schema-generator ../schema/definitions

// GenerateSchema reflects the JSON Schema of Config. Known keys are
// strictly typed; unknown top-level keys are allowed as extensions.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&Config{})
	schema.Title = "ark Configuration"
	schema.Description = "Schema for ark.yml / ark.toml."
	schema.Version = "http://json-schema.org/draft-07/schema#"
	schema.AdditionalProperties = jsonschema.TrueSchema

	return json.MarshalIndent(schema, "", "  ")
}
