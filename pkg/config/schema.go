package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/janitor-config-v1.json
var configSchemaV1 []byte

// SchemaVersion is the version of the embedded configuration schema
const SchemaVersion = "1.0.0"

var compiledSchema *gojsonschema.Schema

func schema() (*gojsonschema.Schema, error) {
	if compiledSchema != nil {
		return compiledSchema, nil
	}
	sch, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(configSchemaV1))
	if err != nil {
		return nil, fmt.Errorf("failed to compile config schema %s: %v", SchemaVersion, err)
	}
	compiledSchema = sch
	return sch, nil
}

// Validate checks the decoded configuration against the embedded schema and
// the cross-field rules the schema cannot express.
func Validate(c *Config) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := ValidateDocument(data); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, dim := range c.Dimensions {
		if seen[dim.Name] {
			return fmt.Errorf("%w: dimension %q is declared twice", ErrInvalidConfig, dim.Name)
		}
		seen[dim.Name] = true

		keys := make(map[string]bool)
		for _, p := range dim.Presets {
			if keys[p.Key] {
				return fmt.Errorf("%w: dimension %q declares preset %q twice", ErrInvalidConfig, dim.Name, p.Key)
			}
			keys[p.Key] = true
		}
		if dim.Default != "" && !keys[dim.Default] {
			return fmt.Errorf("%w: default preset %q of dimension %q does not exist", ErrInvalidConfig, dim.Default, dim.Name)
		}
	}
	return nil
}

// ValidateDocument validates a JSON configuration document against the schema.
func ValidateDocument(configData []byte) error {
	sch, err := schema()
	if err != nil {
		return err
	}

	result, err := sch.Validate(gojsonschema.NewBytesLoader(configData))
	if err != nil {
		return fmt.Errorf("%w: schema validation error: %v", ErrInvalidConfig, err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}
		return fmt.Errorf("%w: configuration validation failed:\n%s", ErrInvalidConfig, strings.Join(errors, "\n"))
	}

	return nil
}
