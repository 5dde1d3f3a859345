package contact

import (
	"crm-gateway/internal/common/errors"
	"crm-gateway/internal/common/validation"
	"crm-gateway/internal/crm/remote"
)

var (
	fullNameProperty = validation.Property{
		Type:        "string",
		Description: "Full name; first token is the given name",
		Pattern:     validation.NonBlankPattern,
		Hint:        "a non-blank string",
	}
	dobProperty = validation.Property{
		Type:        "string",
		Description: "Date of birth",
		Pattern:     validation.DatePattern,
		Hint:        "a date in YYYY-MM-DD format",
	}
)

func GetFindSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"full_name"},
		Properties: map[string]validation.Property{
			"full_name": fullNameProperty,
		},
	}
}

func GetVerifySchema(requirePhone bool) validation.JSONSchema {
	schema := validation.JSONSchema{
		Type:     "object",
		Required: []string{"full_name", "dob"},
		Properties: map[string]validation.Property{
			"full_name": fullNameProperty,
			"dob":       dobProperty,
		},
	}
	if requirePhone {
		schema.Required = append(schema.Required, "phone")
		schema.Properties["phone"] = validation.Property{
			Type:        "string",
			Description: "Phone number, compared by digits only",
			Pattern:     `\d`,
			Hint:        "a phone number containing digits",
		}
	}
	return schema
}

// GetCreateSchema checks only the keys the service needs; every other key is
// a CRM field name passed through as-is.
func GetCreateSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"full_name", "Email"},
		Properties: map[string]validation.Property{
			"full_name": fullNameProperty,
			"Email": {
				Type:        "string",
				Description: "Contact email address",
				Pattern:     validation.NonBlankPattern,
				Hint:        "a non-blank string",
			},
		},
	}
}

func parseFind(body remote.Record) (*FindInput, error) {
	if err := validation.ValidateInput(body, GetFindSchema()).Err(); err != nil {
		return nil, err
	}
	return &FindInput{FullName: body.String("full_name")}, nil
}

func parseVerify(body remote.Record, requirePhone bool) (*VerifyInput, error) {
	if err := validation.ValidateInput(body, GetVerifySchema(requirePhone)).Err(); err != nil {
		return nil, err
	}

	input := &VerifyInput{
		FullName: body.String("full_name"),
		DOB:      body.String("dob"),
	}
	if !validation.ValidateDate(input.DOB) {
		return nil, errors.NewValidationError("field 'dob' must be a date in YYYY-MM-DD format", "dob")
	}
	if requirePhone {
		input.Phone = body.String("phone")
	}
	return input, nil
}

func validateCreate(body remote.Record) error {
	return validation.ValidateInput(body, GetCreateSchema()).Err()
}
