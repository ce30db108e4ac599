package model

import "fmt"

// ValidationError reports a malformed or missing field in caller input.
// Handlers translate it into a 400 response.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
