// Package schema validates decoded response values against JSON Schema documents.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalid = errors.New("schema validation failed")

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(e.Violations, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// Validate checks value, as decoded by the client, against schemaData.
// A value that is already raw JSON ([]byte or json.RawMessage) is validated as is.
func Validate(schemaData []byte, value any) error {
	var document []byte
	switch v := value.(type) {
	case json.RawMessage:
		document = v
	case []byte:
		document = v
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
		document = b
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaData),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return &ValidationError{Violations: violations}
}

// ValidateFile reads the schema at path and validates value against it.
func ValidateFile(path string, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	return Validate(data, value)
}
