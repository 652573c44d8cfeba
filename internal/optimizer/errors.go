package optimizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Fallback messages shown when the API gives no detail.
const (
	OptimizeFailedMessage = "Failed to optimize resume. The AI model may be overloaded. Please try again."
	UploadFailedMessage   = "Failed to upload file. Please try again."
)

// APIError represents a failed call to the Optimization API.
type APIError struct {
	StatusCode int
	// Detail is the human-readable message from the response body, if any.
	Detail  string
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("optimizer API error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("optimizer API error: %s", msg)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the API-provided detail when err carries one,
// otherwise fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// parseDetail extracts the "detail" field of an error body. It is either a
// string or a list of validation entries carrying "msg".
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var entries []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &entries); err == nil {
		msgs := make([]string, 0, len(entries))
		for _, entry := range entries {
			if m := strings.TrimSpace(entry.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
