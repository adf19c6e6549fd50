package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrEmptyOutput is returned when the model produced no text
	ErrEmptyOutput = errors.New("empty model output")
	// ErrNoJSONObject is returned when no {...} span exists in the text
	ErrNoJSONObject = errors.New("no JSON object in model output")
	// ErrInvalidJSON is returned when the extracted span does not parse
	ErrInvalidJSON = errors.New("invalid JSON in model output")
	// ErrSchemaViolation is returned when the object does not match the schema
	ErrSchemaViolation = errors.New("model output does not match schema")
)

// ExtractJSONObject returns the span from the first '{' to the last '}'
// inclusive. Text around the object (prose, markdown fences) is dropped.
func ExtractJSONObject(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrEmptyOutput
	}
	start := strings.Index(input, "{")
	end := strings.LastIndex(input, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: %s", ErrNoJSONObject, truncateString(input, 100))
	}
	return input[start : end+1], nil
}

// ParseAIJSON extracts the JSON object from model output, validates it
// against schema when one is given, and decodes it into target.
func ParseAIJSON(input string, schema *gojsonschema.Schema, target interface{}) error {
	raw, err := ExtractJSONObject(input)
	if err != nil {
		return err
	}

	if !json.Valid([]byte(raw)) {
		return fmt.Errorf("%w: %s", ErrInvalidJSON, truncateString(raw, 100))
	}

	if schema != nil {
		result, err := schema.Validate(gojsonschema.NewStringLoader(raw))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		if !result.Valid() {
			msgs := make([]string, 0, len(result.Errors()))
			for _, e := range result.Errors() {
				msgs = append(msgs, e.String())
			}
			return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(msgs, "; "))
		}
	}

	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// MustCompileSchema compiles a JSON Schema document, panicking on error.
// Intended for package-level schema literals.
func MustCompileSchema(doc string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return schema
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
