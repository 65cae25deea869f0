// Package schema validates canonical events against the published JSON
// schema, so consumers of the events output can rely on its shape.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
	"github.com/yoavf/as-i-was-saying/model"
)

//go:embed event.schema.json
var eventSchema []byte

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// EventSchema returns the raw JSON schema for one canonical event.
func EventSchema() []byte {
	return eventSchema
}

func loadEventSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		compiled, compileErr = compiler.Compile(eventSchema)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile event schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// ValidateJSON checks one encoded event.
func ValidateJSON(data []byte) error {
	schema, err := loadEventSchema()
	if err != nil {
		return err
	}
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}

// ValidateEvent encodes event and checks it against the schema.
func ValidateEvent(event model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return ValidateJSON(data)
}

// ValidateEvents checks every event and reports the first failure by index.
func ValidateEvents(events []model.Event) error {
	for i, event := range events {
		if err := ValidateEvent(event); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}
