package dto

import (
	"strings"
)

// FieldError describes one rejected request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every rejected field of a request.
// An empty result means the request is valid.
type ValidationErrors []FieldError

// Add records a rejected field
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// Error joins the field messages
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Details maps each field to its first message, for the response envelope
func (v ValidationErrors) Details() map[string]string {
	details := make(map[string]string, len(v))
	for _, fe := range v {
		if _, seen := details[fe.Field]; !seen {
			details[fe.Field] = fe.Message
		}
	}
	return details
}

// OrNil returns nil for an empty set so callers can return it as an error
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
