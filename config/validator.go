package config

import (
	"github.com/grovetools/ark/schema"
)

// SchemaValidator validates configuration data against the reflected schema.
type SchemaValidator struct {
	validator *schema.Validator
}

// NewSchemaValidator compiles the schema generated from Config.
func NewSchemaValidator() (*SchemaValidator, error) {
	data, err := GenerateSchema()
	if err != nil {
		return nil, err
	}
	validator, err := schema.NewValidator("ark.schema.json", data)
	if err != nil {
		return nil, err
	}
	return &SchemaValidator{validator: validator}, nil
}

// Validate validates configuration data against the schema.
func (v *SchemaValidator) Validate(configData interface{}) error {
	return v.validator.Validate(configData)
}
