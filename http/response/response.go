package response

import (
	"encoding/json"
	"net/http"

	"eduplatform/errors"
)

// StandardResponse is the standard API response structure
type StandardResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SendJSON writes a JSON response with the given status code
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// Success sends a success response with data
func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	SendJSON(w, statusCode, StandardResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// Error sends an error response
func Error(w http.ResponseWriter, statusCode int, message string) {
	SendJSON(w, statusCode, StandardResponse{
		Status: "error",
		Error:  message,
	})
}

// FromError maps an application error kind to an HTTP status and sends
// it. Untagged errors are treated as internal.
func FromError(w http.ResponseWriter, err error) {
	var msg string
	var appErr *errors.Error
	if errors.As(err, &appErr) {
		msg = appErr.Message
	} else {
		msg = err.Error()
	}

	switch errors.KindOf(err) {
	case errors.Invalid, errors.Unauthorized:
		Error(w, http.StatusBadRequest, msg)
	case errors.NotFound:
		Error(w, http.StatusNotFound, msg)
	case errors.Forbidden:
		Error(w, http.StatusForbidden, msg)
	case errors.Conflict:
		Error(w, http.StatusConflict, msg)
	case errors.RateLimited:
		Error(w, http.StatusServiceUnavailable, msg)
	default:
		Error(w, http.StatusInternalServerError, msg)
	}
}
