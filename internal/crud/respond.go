package crud

import (
	"context"
	"encoding/json"
	"net/http"

	"tasks-api/internal/logger"
)

// Envelope is the body of a mutating operation's response.
type Envelope struct {
	Message string `json:"message"`
}

// Detail is the body used for requests rejected before validation and for
// missing entities.
type Detail struct {
	Detail string `json:"detail"`
}

const notFoundDetail = "Not found."

// WriteJSON writes data as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error(context.Background(), err, "failed to encode JSON response")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Message: message})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, Detail{Detail: detail})
}

func writeNotFound(w http.ResponseWriter) {
	writeDetail(w, http.StatusNotFound, notFoundDetail)
}

// NotFound writes the standard 404 body. Routers use it for unknown paths.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeNotFound(w)
}
