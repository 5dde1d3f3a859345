// Package mapper turns inbound JSON bodies into CRM insert payloads. Keys it
// does not recognize pass through unchanged as remote field names.
package mapper

import (
	"fmt"
	"strings"

	"crm-gateway/internal/common/errors"
	"crm-gateway/internal/crm/normalize"
	"crm-gateway/internal/crm/remote"
)

const (
	FieldFullName   = "full_name"
	FieldFirstName  = "FirstName"
	FieldLastName   = "LastName"
	FieldEmail      = "Email"
	FieldEntityType = "Entity_Type__c"
	FieldAccountID  = "AccountId"
	FieldContactID  = "ContactId"

	remoteAccountRef = "Account__c"
	remoteContactRef = "Contact__c"
)

// Mapped is a payload ready for insert plus the body echoed back to the
// caller once the CRM assigns an Id.
type Mapped struct {
	Payload remote.Record
	Echo    remote.Record
}

// Created returns the echo body with the assigned Id.
func (m Mapped) Created(id string) remote.Record {
	out := m.Echo.Clone()
	out["Id"] = id
	return out
}

// Contact expands full_name into FirstName/LastName. Explicit FirstName or
// LastName keys in the body take precedence.
func Contact(body remote.Record, defaultEntityType string) (Mapped, error) {
	fullName, err := requireString(body, FieldFullName)
	if err != nil {
		return Mapped{}, err
	}
	if _, err := requireString(body, FieldEmail); err != nil {
		return Mapped{}, err
	}

	payload := body.Clone()
	delete(payload, FieldFullName)

	given, family := normalize.SplitFullName(fullName)
	setDefault(payload, FieldFirstName, given)
	setDefault(payload, FieldLastName, family)

	if payload.String(FieldLastName) == "" {
		return Mapped{}, errors.NewValidationError(
			"LastName is required; full_name must contain a given and a family name", FieldLastName)
	}

	if defaultEntityType != "" {
		setDefault(payload, FieldEntityType, defaultEntityType)
	}

	return Mapped{Payload: payload, Echo: payload.Clone()}, nil
}

// CustomerService sends AccountId as Account__c and echoes the body as sent.
func CustomerService(body remote.Record) (Mapped, error) {
	accountID, err := requireString(body, FieldAccountID)
	if err != nil {
		return Mapped{}, err
	}

	payload := body.Clone()
	delete(payload, FieldAccountID)
	payload[remoteAccountRef] = accountID

	return Mapped{Payload: payload, Echo: body.Clone()}, nil
}

// ScriptCase needs ContactId or AccountId; each is sent under its __c
// relationship name.
func ScriptCase(body remote.Record) (Mapped, error) {
	contactID := optionalString(body, FieldContactID)
	accountID := optionalString(body, FieldAccountID)
	if contactID == "" && accountID == "" {
		return Mapped{}, errors.NewValidationError(
			"ContactId or AccountId is required to relate the case", FieldContactID+","+FieldAccountID)
	}

	rest := body.Clone()
	delete(rest, FieldContactID)
	delete(rest, FieldAccountID)

	payload := rest.Clone()
	echo := rest.Clone()
	if contactID != "" {
		payload[remoteContactRef] = contactID
		echo[FieldContactID] = contactID
	}
	if accountID != "" {
		payload[remoteAccountRef] = accountID
		echo[FieldAccountID] = accountID
	}

	return Mapped{Payload: payload, Echo: echo}, nil
}

func requireString(body remote.Record, field string) (string, error) {
	raw, ok := body[field]
	if !ok || raw == nil {
		return "", errors.NewValidationError(fmt.Sprintf("field '%s' is required", field), field)
	}
	s, ok := raw.(string)
	if !ok {
		return "", errors.NewValidationError(fmt.Sprintf("field '%s' must be a string", field), field)
	}
	if strings.TrimSpace(s) == "" {
		return "", errors.NewValidationError(fmt.Sprintf("field '%s' must not be blank", field), field)
	}
	return s, nil
}

func optionalString(body remote.Record, field string) string {
	s, _ := body[field].(string)
	return strings.TrimSpace(s)
}

func setDefault(rec remote.Record, field string, value interface{}) {
	if _, ok := rec[field]; !ok {
		rec[field] = value
	}
}
