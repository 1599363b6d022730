// schema-generator writes the JSON schemas for widgetdeck.yml, its logging
// section and the persisted application state.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/widgetdeck/appstate"
	"github.com/grovetools/widgetdeck/config"
	"github.com/grovetools/widgetdeck/logging"
	"github.com/invopop/jsonschema"
)

func loggingSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&logging.Config{})
	schema.Title = "widgetdeck Logging Configuration"
	schema.Description = "Schema for the 'logging' section of widgetdeck.yml."
	schema.Required = nil

	return json.MarshalIndent(schema, "", "  ")
}

func main() {
	outputDir := flag.String("out", "schema", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}

	generators := []struct {
		file string
		gen  func() ([]byte, error)
	}{
		{"widgetdeck.schema.json", config.GenerateSchema},
		{"logging.schema.json", loggingSchema},
		{"appstate.schema.json", appstate.GenerateSchema},
	}

	for _, g := range generators {
		data, err := g.gen()
		if err != nil {
			log.Fatalf("Error generating %s: %v", g.file, err)
		}
		outputPath := filepath.Join(*outputDir, g.file)
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			log.Fatalf("Error writing schema file: %v", err)
		}
		log.Printf("Generated %s", outputPath)
	}
}
