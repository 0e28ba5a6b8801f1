package httputil

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/estatebid/estatebid-api/internal/apperror"
	"github.com/estatebid/estatebid-api/internal/logging"
)

// SuccessResponse is the envelope for every successful response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the envelope for every failed response
type ErrorResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
}

const internalErrorMessage = "internal server error"

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// RespondSuccess wraps data in the success envelope
func RespondSuccess(w http.ResponseWriter, statusCode int, message string, data any) {
	RespondJSON(w, SuccessResponse{Success: true, Message: message, Data: data}, statusCode)
}

// RespondMessage sends a success envelope without data
func RespondMessage(w http.ResponseWriter, statusCode int, message string) {
	RespondSuccess(w, statusCode, message, nil)
}

// RespondError is the single place where errors become HTTP responses.
// Expected failures keep their message; anything else is logged and hidden.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.GetLoggerFromContext(r.Context())

	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind == apperror.KindInternal {
		logger.Error("request failed: internal error", "error", err.Error())
		RespondJSON(w, ErrorResponse{Message: internalErrorMessage}, http.StatusInternalServerError)
		return
	}

	status := appErr.Kind.HTTPStatus()
	logger.Warn("request failed", "kind", appErr.Kind.String(), "error", appErr.Message)

	RespondJSON(w, ErrorResponse{
		Message: appErr.Message,
		Errors:  appErr.Fields,
	}, status)
}

// RespondErrorMessage sends an error envelope for failures produced outside services
func RespondErrorMessage(w http.ResponseWriter, message string, statusCode int) {
	RespondJSON(w, ErrorResponse{Message: message}, statusCode)
}
