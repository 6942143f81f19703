package config

import (
	"encoding/json"
	"io"
	"reflect"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"github.com/m-mizutani/goerr/v2"
)

// WriteSchema writes the JSON Schema of the config file to w
func WriteSchema(w io.Writer) error {
	ref, err := openapi3gen.NewSchemaRefForValue(&File{}, nil,
		openapi3gen.SchemaCustomizer(describeField),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to generate config schema")
	}

	schema := ref.Value
	schema.Title = "Config"
	// webhook_url may also be given by webhook_url_file, a flag or the environment
	schema.Required = []string{"cup_base_url"}

	raw, err := json.Marshal(schema)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal config schema")
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return goerr.Wrap(err, "failed to decode config schema")
	}
	doc["$schema"] = "http://json-schema.org/draft-07/schema#"

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return goerr.Wrap(err, "failed to write config schema")
	}
	return nil
}

func describeField(name string, t reflect.Type, tag reflect.StructTag, schema *openapi3.Schema) error {
	if desc, ok := tag.Lookup("description"); ok {
		schema.Description = desc
	}
	if def, ok := tag.Lookup("default"); ok {
		schema.Default = def
	}
	if name == "sink" {
		schema.Enum = []any{SinkDiscord, SinkSlack}
	}
	return nil
}
