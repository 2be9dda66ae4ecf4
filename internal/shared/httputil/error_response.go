package httputil

import "net/http"

// ErrorBody is the JSON shape returned by every admin API error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteError writes {"error": message} with the given status code.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorBody{Error: message})
}

// WriteUnauthorized writes a 401 with the standard message.
func WriteUnauthorized(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, "unauthorized")
}

// WriteNotFound writes a 404 with the standard message.
func WriteNotFound(w http.ResponseWriter) {
	WriteError(w, http.StatusNotFound, "not found")
}
