// Package validation provides the field-keyed validation error used by all
// endpoint input checks. Validation runs before any store access and the
// HTTP layer renders the collected messages as a 422 response.
package validation

// Error accumulates validation messages per input field.
type Error struct {
	Fields map[string][]string
}

// New returns an empty validation error.
func New() *Error {
	return &Error{Fields: map[string][]string{}}
}

// Add appends a message for the given field.
func (e *Error) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors reports whether any message has been collected.
func (e *Error) HasErrors() bool {
	return len(e.Fields) > 0
}

// Error implements the error interface by returning the first message.
func (e *Error) Error() string {
	for _, msgs := range e.Fields {
		if len(msgs) > 0 {
			return msgs[0]
		}
	}
	return "validation failed"
}
