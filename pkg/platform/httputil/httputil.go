// Package httputil writes the response shapes of the course-selection
// backend: the {code, message, data} envelope for results and FastAPI-style
// {detail} bodies for HTTP-level errors.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "coursehub/pkg/domain-errors"
)

// Envelope is the uniform response wrapper.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes a successful envelope.
func WriteData(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Code: http.StatusOK, Message: "success", Data: data})
}

// WriteEnvelopeError reports a business failure inside a 200 response.
func WriteEnvelopeError(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, http.StatusOK, Envelope{Code: code, Message: message})
}

// WriteDetail writes an HTTP-level error with a {detail} body.
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, map[string]string{"detail": detail})
}

// WriteError maps a classified error to its HTTP status. Internal errors do
// not leak their message.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(dErrors.CodeOf(err))
	if status == http.StatusInternalServerError {
		WriteDetail(w, status, "Internal server error")
		return
	}
	WriteDetail(w, status, dErrors.MessageOf(err))
}

// StatusFor returns the HTTP status for a code.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeRequestFailed:
		return http.StatusBadRequest
	case dErrors.CodeValidation:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeNetwork, dErrors.CodeServer:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
