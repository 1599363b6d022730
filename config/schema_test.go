package config

import (
	"encoding/json"
	"testing"
)

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	if err != nil {
		t.Fatalf("GenerateSchema: %v", err)
	}

	var schema map[string]interface{}
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}

	if schema["$schema"] != "http://json-schema.org/draft-07/schema#" {
		t.Errorf("unexpected $schema %v", schema["$schema"])
	}

	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		t.Fatal("expected properties")
	}
	for _, key := range []string{"version", "storage", "memsaver"} {
		if _, ok := props[key]; !ok {
			t.Errorf("expected property %q", key)
		}
	}
	if _, ok := props["Extensions"]; ok {
		t.Error("extensions must not be described")
	}
}
