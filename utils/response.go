package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SainiAdi-04/Task-Manager/logging"
	"github.com/SainiAdi-04/Task-Manager/services"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: Failed to encode response: %v", err)
	}
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Message: message})
}

// RespondWithServiceError maps a service error onto its HTTP status. Server errors
// also carry the underlying cause.
func RespondWithServiceError(w http.ResponseWriter, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		svcErr = &services.Error{Kind: services.KindServerError, Message: "Server error", Err: err}
	}

	code := StatusFor(svcErr.Kind)
	body := ErrorResponse{Message: svcErr.Message}
	if svcErr.Kind == services.KindServerError {
		logging.Logger.Errorf("Event ID: SERVER_ERROR, Description: %v", err)
		if svcErr.Err != nil {
			body.Error = svcErr.Err.Error()
		}
	}
	RespondWithJSON(w, code, body)
}

func StatusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindBadRequest:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
