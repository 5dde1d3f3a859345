package customerservice

import (
	"crm-gateway/internal/common/validation"
	"crm-gateway/internal/crm/remote"
)

// Picklist values accepted by the Customer_Service__c fields in strict mode.
var picklists = map[string][]string{
	"CallType__c": {"Inbone", "Onbone"},
	"ParentezcoDelCliente__c": {
		"Cliente", "Familiar del Cliente", "Amigo del Cliente",
		"Agencia de Gobierno", "Un tercero", "eje realtor...",
	},
	"UltimoAnioDeAyuda__c": {
		"2024", "2023", "2022", "2021", "2020", "2019", "2018", "2017 o antes",
	},
	"Communication_channel__c": {"Text message", "Phone", "In person"},
	"TipoCliente__c":           {"Cliente Actual", "Cliente Retorno", "Cliente Nuevo"},
	"TipoHumor_Cliente__c": {
		"Enojado", "Frustrado", "Desesperado", "Calmado", "Feliz", "Apático",
		"Celoso", "Nublado", "Preocupado", "Ansioso", "Agradecido", "Indeciso",
		"Aliviado", "Preparado", "Impaciente", "Inseguro", "Interesado",
		"Resuelto", "Curioso", "Avergonzado", "Resentido", "Resignado",
		"Optimista", "Motivado",
	},
}

var strictRequired = []string{
	"AccountId",
	"CallType__c",
	"ParentezcoDelCliente__c",
	"Fast_Note__c",
	"UltimoAnioDeAyuda__c",
	"Communication_channel__c",
	"TipoCliente__c",
	"TipoHumor_Cliente__c",
}

var accountIDProperty = validation.Property{
	Type:        "string",
	Description: "Account the service record belongs to",
	Pattern:     validation.NonBlankPattern,
	Hint:        "a non-blank string",
}

// GetCreateSchema returns the relaxed schema, or with strict set the full
// required list and picklist enums.
func GetCreateSchema(strict bool) validation.JSONSchema {
	schema := validation.JSONSchema{
		Type:     "object",
		Required: []string{"AccountId"},
		Properties: map[string]validation.Property{
			"AccountId": accountIDProperty,
		},
	}
	if !strict {
		return schema
	}

	schema.Required = append([]string(nil), strictRequired...)
	for field, values := range picklists {
		schema.Properties[field] = validation.Property{
			Enum: values,
		}
	}
	return schema
}

func validateCreate(body remote.Record, strict bool) error {
	return validation.ValidateInput(body, GetCreateSchema(strict)).Err()
}
