package agent

import (
	"fmt"
	"strings"

	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

// validateSchema checks value against a small subset of JSON Schema
// (type, properties, required, items, enum) sufficient for the fixed,
// hand-authored output schemas this domain uses (Strategy, EdgeScorecard,
// SelectionReasoning, Charter, and the deploy confirmation object). No
// example repo in the pack vendors a JSON-Schema validator; a fixed,
// known-shape schema set does not warrant pulling one in for five call
// sites, so this is intentionally stdlib-only (see DESIGN.md).
func validateSchema(schema map[string]any, value any, path string) error {
	if schema == nil {
		return nil
	}

	if enumRaw, ok := schema["enum"]; ok {
		if !enumContains(enumRaw, value) {
			return fmt.Errorf("%s: value %v not in enum %v", path, value, enumRaw)
		}
	}

	wantType, _ := schema["type"].(string)
	switch wantType {
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object, got %T", path, value)
		}
		if required, ok := schema["required"].([]any); ok {
			for _, r := range required {
				key, _ := r.(string)
				if _, present := obj[key]; !present {
					return fmt.Errorf("%s: missing required field %q", path, key)
				}
			}
		}
		if props, ok := schema["properties"].(map[string]any); ok {
			for key, propSchemaRaw := range props {
				fieldVal, present := obj[key]
				if !present {
					continue
				}
				propSchema, _ := propSchemaRaw.(map[string]any)
				if err := validateSchema(propSchema, fieldVal, path+"."+key); err != nil {
					return err
				}
			}
		}
	case "array":
		arr, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%s: expected array, got %T", path, value)
		}
		if itemSchema, ok := schema["items"].(map[string]any); ok {
			for i, item := range arr {
				if err := validateSchema(itemSchema, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
		}
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s: expected string, got %T", path, value)
		}
	case "number", "integer":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("%s: expected number, got %T", path, value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%s: expected boolean, got %T", path, value)
		}
	}

	return nil
}

func enumContains(enum any, value any) bool {
	arr, ok := enum.([]any)
	if !ok {
		return true
	}
	for _, e := range arr {
		if fmt.Sprintf("%v", e) == fmt.Sprintf("%v", value) {
			return true
		}
	}
	return false
}

// ValidateOutput runs validateSchema at the root and wraps any failure in
// a domain SchemaError identifying the stage and model for the caller.
func ValidateOutput(schema map[string]any, output map[string]any, stage, modelID string) error {
	if err := validateSchema(schema, output, "$"); err != nil {
		return &domainerrors.SchemaError{
			ModelID: modelID,
			Stage:   stage,
			Detail:  strings.TrimSpace(err.Error()),
			Cause:   err,
		}
	}
	return nil
}
