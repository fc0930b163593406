package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// APIError is a non-2xx answer from the intake service. Message is
// server-supplied text and must be treated as untrusted data by anything
// that displays it.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server rejected request (status %d): %s", e.Status, e.Message)
}

// failureMessage extracts a human-readable message from a failure body. The
// intake service answers {"success":false,"error":...}; older deployments
// answer {"message":...} or plain text. Whatever comes back is data, never
// markup.
func failureMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" || !utf8.ValidString(text) {
		return "submission rejected"
	}
	return text
}
