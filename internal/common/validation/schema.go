package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"crm-gateway/internal/common/errors"
)

// DatePattern is the shape every date-of-birth must have before calendar checks.
const DatePattern = `^\d{4}-\d{2}-\d{2}$`

// NonBlankPattern matches any string holding at least one non-space character.
const NonBlankPattern = `\S`

// JSONSchema defines the structure for request payload schemas.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties,omitempty"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties *bool               `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Pattern     string   `json:"pattern,omitempty"`
	MinLength   *int     `json:"minLength,omitempty"`
	MaxLength   *int     `json:"maxLength,omitempty"`
	// Hint completes "field 'x' must be ..." when the pattern does not match.
	Hint string `json:"-"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Value   interface{} `json:"value,omitempty"`
	Allowed []string    `json:"allowed,omitempty"`
}

// ValidateInput checks input against schema and returns every violation,
// ordered by field name.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(input)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: fmt.Sprintf("schema validation error: %v", err),
				Code:    "SCHEMA_ERROR",
			}},
		}
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	violations := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, convert(desc, schema))
	}
	sort.SliceStable(violations, func(i, j int) bool { return violations[i].Field < violations[j].Field })

	return &ValidationResult{
		Valid:  false,
		Errors: violations,
	}
}

func convert(desc gojsonschema.ResultError, schema JSONSchema) ValidationError {
	field := desc.Field()
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			field = prop
		}
	}

	out := ValidationError{
		Field:   field,
		Message: fmt.Sprintf("field '%s': %s", field, desc.Description()),
		Code:    errorCode(desc.Type()),
	}

	prop := schema.Properties[field]
	switch desc.Type() {
	case "required":
		out.Message = fmt.Sprintf("field '%s' is required", field)
	case "enum":
		out.Message = fmt.Sprintf("invalid value for field '%s'", field)
		out.Value = desc.Value()
		out.Allowed = prop.Enum
	case "pattern":
		out.Value = desc.Value()
		if prop.Hint != "" {
			out.Message = fmt.Sprintf("field '%s' must be %s", field, prop.Hint)
		}
	case "invalid_type":
		out.Message = fmt.Sprintf("field '%s' must be of type %s", field, prop.Type)
	}

	return out
}

func errorCode(kind string) string {
	switch kind {
	case "required":
		return "REQUIRED_FIELD_MISSING"
	case "invalid_type":
		return "INVALID_TYPE"
	case "enum":
		return "INVALID_ENUM_VALUE"
	case "pattern":
		return "PATTERN_MISMATCH"
	case "string_gte":
		return "MIN_LENGTH_VIOLATION"
	case "string_lte":
		return "MAX_LENGTH_VIOLATION"
	default:
		return strings.ToUpper(kind)
	}
}

// ValidateDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidateDate(s string) bool {
	if len(s) != len("2006-01-02") {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// Err converts the first violation into a validation error; nil when valid.
func (vr *ValidationResult) Err() error {
	first := vr.FirstError()
	if vr.Valid || first == nil {
		return nil
	}

	stdErr := errors.NewValidationError(first.Message, first.Field)
	if first.Code == "INVALID_ENUM_VALUE" {
		stdErr.WithMetadata(map[string]interface{}{
			"field":          first.Field,
			"provided_value": first.Value,
			"allowed_values": first.Allowed,
		})
	}
	if len(vr.Errors) > 1 {
		stdErr.WithMetadata(map[string]interface{}{"errors": vr.GetErrorMessages()})
	}
	return stdErr
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// FirstError returns the first violation, or nil when the input was valid.
func (vr *ValidationResult) FirstError() *ValidationError {
	if len(vr.Errors) == 0 {
		return nil
	}
	return &vr.Errors[0]
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
