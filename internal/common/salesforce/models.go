package salesforce

import (
	"fmt"
	"net/http"
	"strings"

	"crm-gateway/internal/crm/remote"
)

const invalidSessionCode = "INVALID_SESSION_ID"

type queryResponse struct {
	TotalSize      int             `json:"totalSize"`
	Done           bool            `json:"done"`
	NextRecordsURL string          `json:"nextRecordsUrl"`
	Records        []remote.Record `json:"records"`
}

type createResponse struct {
	ID      string        `json:"id"`
	Success bool          `json:"success"`
	Errors  []errorDetail `json:"errors"`
}

type errorDetail struct {
	Message   string   `json:"message"`
	ErrorCode string   `json:"errorCode"`
	Fields    []string `json:"fields,omitempty"`
}

// APIError is a non-2xx answer from the REST API.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
	Fields     []string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("salesforce API error (status %d)", e.StatusCode)
	if e.ErrorCode != "" {
		msg += ": " + e.ErrorCode
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if len(e.Fields) > 0 {
		msg += " [" + strings.Join(e.Fields, ", ") + "]"
	}
	return msg
}

// InvalidSession reports whether the access token was rejected.
func (e *APIError) InvalidSession() bool {
	return e.StatusCode == http.StatusUnauthorized || e.ErrorCode == invalidSessionCode
}

// ClientError reports a 4xx caused by the submitted request.
func (e *APIError) ClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && !e.InvalidSession()
}

func newAPIError(status int, details []errorDetail, raw string) *APIError {
	apiErr := &APIError{StatusCode: status}
	if len(details) == 0 {
		apiErr.Message = strings.TrimSpace(raw)
		return apiErr
	}

	apiErr.ErrorCode = details[0].ErrorCode
	apiErr.Fields = details[0].Fields
	messages := make([]string, 0, len(details))
	for _, d := range details {
		messages = append(messages, d.Message)
	}
	apiErr.Message = strings.Join(messages, "; ")
	return apiErr
}

func stripAttributes(records []remote.Record) []remote.Record {
	for _, rec := range records {
		delete(rec, "attributes")
	}
	return records
}
