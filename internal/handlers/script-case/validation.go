package scriptcase

import (
	"crm-gateway/internal/common/validation"
	"crm-gateway/internal/crm/mapper"
	"crm-gateway/internal/crm/remote"
)

// GetCreateSchema types the two references. Requiring at least one of them is
// left to the mapper, which also treats a blank reference as absent.
func GetCreateSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			mapper.FieldContactID: {
				Type:        "string",
				Description: "Contact the case relates to",
			},
			mapper.FieldAccountID: {
				Type:        "string",
				Description: "Account the case relates to",
			},
		},
	}
}

func validateCreate(body remote.Record) error {
	return validation.ValidateInput(body, GetCreateSchema()).Err()
}
