package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Message is the standard error/notice body used across handlers.
type Message struct {
	Message string `json:"message"`
}

// JSON writes any payload with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("respond: encode payload failed")
	}
}

// Error writes a human-readable error body.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Message{Message: message})
}
