package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/simheat/pkg/errors"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidMatrix, errors.ErrCodeInvalidMapping,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidColormap, errors.ErrCodeInvalidBackend,
		errors.ErrCodeInvalidMethod, errors.ErrCodeInvalidRange, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" {
		// Unclassified failures are internal; their text is not exposed.
		code, msg = errors.ErrCodeInternal, "internal error"
	}
	writeJSON(w, StatusFor(code), errorResponse{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
