package response

import (
	"encoding/json"
	"net/http"

	"github.com/quimera/domains/internal/apperror"
)

// ErrorResponse is the JSON shape of every error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteServiceError maps a service-layer error to its HTTP status by
// apperror kind. Unclassified errors are an opaque 500.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		WriteError(w, http.StatusBadRequest, err.Error())
	case apperror.KindPermissionDenied:
		WriteError(w, http.StatusForbidden, err.Error())
	case apperror.KindNotFound:
		WriteError(w, http.StatusNotFound, err.Error())
	case apperror.KindConflict:
		WriteError(w, http.StatusConflict, err.Error())
	case apperror.KindExternalProvider:
		WriteError(w, http.StatusBadGateway, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
