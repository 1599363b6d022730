package appstate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	santhosh "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	schemaOnce     sync.Once
	compiledSchema *santhosh.Schema
	schemaErr      error
)

// GenerateSchema returns the JSON Schema of the current-version persisted state.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		Anonymous:                  true,
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
	}
	schema := r.Reflect(&PersistentAppState{})
	schema.Title = "widgetdeck persisted state"
	schema.Description = fmt.Sprintf("Payload of the persisted state envelope, version %d.", CurrentVersion)
	return json.MarshalIndent(schema, "", "  ")
}

func loadSchema() (*santhosh.Schema, error) {
	schemaOnce.Do(func() {
		data, err := GenerateSchema()
		if err != nil {
			schemaErr = fmt.Errorf("generate schema: %w", err)
			return
		}
		compiler := santhosh.NewCompiler()
		if err := compiler.AddResource("persistent-state.json", bytes.NewReader(data)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("persistent-state.json")
	})
	return compiledSchema, schemaErr
}

// ValidatePayload checks a current-version payload against the schema.
func ValidatePayload(obj json.RawMessage) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	var doc interface{}
	if err := json.Unmarshal(obj, &doc); err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		if verr, ok := err.(*santhosh.ValidationError); ok {
			var messages []string
			collectErrors(verr, &messages)
			return fmt.Errorf("persisted state does not match schema:\n%s", strings.Join(messages, "\n"))
		}
		return fmt.Errorf("persisted state does not match schema: %w", err)
	}
	return nil
}

func collectErrors(err *santhosh.ValidationError, messages *[]string) {
	if err.InstanceLocation != "" {
		*messages = append(*messages, fmt.Sprintf("- %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}
