// Package request decodes inbound JSON bodies into open records.
package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"crm-gateway/internal/common/errors"
	"crm-gateway/internal/crm/remote"
)

// MaxBodyBytes caps the size of an inbound body.
const MaxBodyBytes = 1 << 20

// DecodeRecord reads a JSON object body. A missing, null or empty object is
// rejected, as is anything that is not a JSON object.
func DecodeRecord(w http.ResponseWriter, r *http.Request) (remote.Record, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return nil, errors.NewValidationError("request body could not be read", err.Error())
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.NewValidationError("request body must not be empty", "")
	}

	var body remote.Record
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, errors.NewValidationError("request body must be a JSON object", fmt.Sprintf("%v", err))
	}
	if len(body) == 0 {
		return nil, errors.NewValidationError("request body must not be empty", "")
	}

	return body, nil
}
