package cms

import "fmt"

// DecodeError represents a content API response that could not be decoded.
type DecodeError struct {
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cms decode error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cms decode error: %s", e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
