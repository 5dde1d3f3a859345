package response

import (
	"net/http"

	"crm-gateway/internal/common/errors"
	"crm-gateway/internal/common/logger"
	"crm-gateway/internal/common/metrics"
)

// WriteError logs err, counts it under endpoint and writes its envelope.
func WriteError(w http.ResponseWriter, log logger.Logger, endpoint string, err error) {
	stdErr := errors.Normalize(err)
	status, body := Error(stdErr)

	metrics.RequestErrors.WithLabelValues(endpoint, string(stdErr.Code)).Inc()

	fields := map[string]interface{}{
		"endpoint":   endpoint,
		"error_code": stdErr.Code,
		"status":     status,
		"details":    stdErr.Details,
	}
	if status >= http.StatusInternalServerError {
		log.Error(stdErr.Message, fields)
	} else {
		log.Warn(stdErr.Message, fields)
	}

	WriteJSON(w, status, body)
}
