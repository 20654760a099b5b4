package mentor

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed step_document.schema.json
var stepDocumentSchema string

var (
	schemaOnce    sync.Once
	stepSchema    *gojsonschema.Schema
	schemaLoadErr error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		loader := gojsonschema.NewStringLoader(stepDocumentSchema)
		stepSchema, schemaLoadErr = gojsonschema.NewSchema(loader)
	})
	return stepSchema, schemaLoadErr
}

// validatePayload checks that raw is a JSON object shaped like a step
// document: at least one stepN key (each an object) or an error string.
func validatePayload(raw []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("loading step document schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validating step document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	fields := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		fields = append(fields, fmt.Sprintf("%s: %s", field, desc.Description()))
	}
	return fmt.Errorf("step document failed validation: %s", strings.Join(fields, "; "))
}
