package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/and161185/educert/internal/errs"
)

const metadataSchemaURL = "https://educert.local/schemas/certificate-metadata.json"

const metadataSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["title", "description", "attributes"],
  "properties": {
    "title": {"type": "string", "minLength": 1, "pattern": "\\S"},
    "description": {"type": "string", "minLength": 1, "pattern": "\\S"},
    "image": {"type": "string"},
    "attributes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["trait_type", "value"],
        "properties": {
          "trait_type": {"type": "string", "minLength": 1},
          "value": {"type": "string"}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func metadataValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(metadataSchemaURL, strings.NewReader(metadataSchema)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(metadataSchemaURL)
	})
	return schema, schemaErr
}

// ValidateMetadata checks certificate metadata, as given, against the embedded
// JSON schema. Nil attributes encode as null and are rejected.
func ValidateMetadata(m CertificateMetadata) error {
	sch, err := metadataValidator()
	if err != nil {
		return fmt.Errorf("metadata schema: %w", err)
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}
	return nil
}
