// Package schema provides JSON schema validation for convstudy study files.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	schemafs "github.com/AndreyAkinshin/convstudy/schema"
)

const studySchemaName = "study.schema.json"

var (
	studySchema *jsonschema.Schema
	compileOnce sync.Once
	compileErr  error
)

// compileSchemas compiles the embedded schema once.
func compileSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()

		data, err := schemafs.FS.ReadFile(studySchemaName)
		if err != nil {
			compileErr = fmt.Errorf("read study schema: %w", err)
			return
		}

		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal study schema: %w", err)
			return
		}

		if err := compiler.AddResource(studySchemaName, doc); err != nil {
			compileErr = fmt.Errorf("add study schema resource: %w", err)
			return
		}

		studySchema, err = compiler.Compile(studySchemaName)
		if err != nil {
			compileErr = fmt.Errorf("compile study schema: %w", err)
			return
		}
	})

	return compileErr
}

// ValidateStudy validates JSON data against the study schema.
func ValidateStudy(data []byte) error {
	if err := compileSchemas(); err != nil {
		return err
	}

	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := studySchema.Validate(v); err != nil {
		return fmt.Errorf("study validation failed: %w", err)
	}

	return nil
}

// ValidateStudyValue validates a decoded document, such as the result of
// decoding YAML into an any, against the study schema.
func ValidateStudyValue(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	return ValidateStudy(data)
}
