// Package response maps lookup outcomes, created records and errors onto
// HTTP status codes and JSON envelopes.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"crm-gateway/internal/common/errors"
	"crm-gateway/internal/crm/lookup"
	"crm-gateway/internal/crm/remote"
)

const (
	StatusCreated = "created"
	StatusError   = "error"
)

// Envelope is the JSON body of every response. It always carries "status".
type Envelope map[string]interface{}

// Lookup shapes a lookup result. fullName is the caller's filter, echoed in
// the not_found message.
func Lookup(result *lookup.Result, fullName string) (int, Envelope) {
	switch result.Outcome {
	case lookup.OutcomeFound, lookup.OutcomeVerified:
		body := Envelope{
			"status":  string(result.Outcome),
			"contact": result.Record,
		}
		if result.Ambiguous {
			body["ambiguous"] = true
		}
		return http.StatusOK, body

	case lookup.OutcomeNotFound:
		return http.StatusNotFound, Envelope{
			"status":  string(lookup.OutcomeNotFound),
			"message": fmt.Sprintf("Contact with name '%s' not found", fullName),
		}

	case lookup.OutcomeMismatch:
		mismatch := errors.NewMismatchError(result.MismatchMessage())
		return errors.HTTPStatus(mismatch.Code), Envelope{
			"status":  string(lookup.OutcomeMismatch),
			"message": mismatch.Message,
		}

	default:
		return Error(errors.NewInternalError(fmt.Errorf("unknown lookup outcome %q", result.Outcome)))
	}
}

// Created wraps a new record under key, e.g. "contact" or "case".
func Created(key string, record remote.Record) (int, Envelope) {
	return http.StatusCreated, Envelope{
		"status": StatusCreated,
		key:      record,
	}
}

// Error converts err to its status code and error envelope. Details are only
// exposed for caller-correctable failures.
func Error(err error) (int, Envelope) {
	stdErr := errors.Normalize(err)
	status := errors.HTTPStatus(stdErr.Code)

	body := Envelope{
		"status":  StatusError,
		"message": stdErr.Message,
	}

	switch stdErr.Code {
	case errors.ErrCodeValidationFailed, errors.ErrCodeRemoteRejected:
		if stdErr.Details != "" {
			body["details"] = stdErr.Details
		}
		for k, v := range stdErr.Metadata {
			body[k] = v
		}
	}

	return status, body
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
