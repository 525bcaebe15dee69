// Package httputil holds the JSON response helpers shared by the middleware
// and the route handlers, so every error body has the same shape.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/atinyakov/handmind/internal/service"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error  string          `json:"error"`
	Issues []service.Issue `json:"issues,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteErrorMessage writes {"error": message}.
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteValidationError writes a 400 carrying the failed field rules.
func WriteValidationError(w http.ResponseWriter, issues []service.Issue) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payload", Issues: issues})
}
