package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "dasigov/pkg/domain-errors"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// writeJSON centralizes success responses.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates coded domain errors into HTTP responses. Every
// failure carries its kind and a human-readable reason; nothing collapses
// into a generic success.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation:
		status = http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		status = http.StatusUnauthorized
	case dErrors.CodeForbidden:
		status = http.StatusForbidden
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeInvariantViolation:
		status = http.StatusConflict
	case dErrors.CodePreconditionFailed:
		status = http.StatusPreconditionFailed
	case dErrors.CodeUpstream:
		status = http.StatusBadGateway
	case dErrors.CodeTimeout:
		status = http.StatusGatewayTimeout
	}

	description := err.Error()
	var de *dErrors.Error
	if errors.As(err, &de) {
		description = de.Message
	}

	writeJSON(w, status, errorResponse{Error: string(code), Description: description})
}
