package validation

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "media-pipeline/internal/common/errors"
)

// Schema names for the pipeline's JSON outputs.
const (
	SchemaIntent = "intent"
	SchemaFields = "fields"
	SchemaAudio  = "audio"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Validator checks pipeline payloads against their JSON Schema contracts.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// New compiles the embedded schemas.
func New() (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema)}
	for _, name := range []string{SchemaIntent, SchemaFields, SchemaAudio} {
		raw, err := schemaFS.ReadFile("schemas/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = schema
	}
	return v, nil
}

// MustNew is New for package-level wiring where a broken embedded schema
// is a programming error.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks doc against the named schema. doc is marshaled to JSON
// first, so struct tags apply.
func (v *Validator) Validate(name string, doc interface{}) error {
	schema, ok := v.schemas[name]
	if !ok {
		return apperrors.NewOutputValidationError(fmt.Sprintf("unknown schema %q", name))
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return apperrors.NewOutputValidationError(fmt.Sprintf("%s: %v", name, err))
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return apperrors.NewOutputValidationError(fmt.Sprintf("%s: %s", name, strings.Join(errs, "; ")))
	}

	return nil
}
