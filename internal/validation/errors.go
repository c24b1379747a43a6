package validation

import (
	"slices"
	"strings"
)

// NonFieldErrors collects errors that are not bound to a single field.
const NonFieldErrors = "non_field_errors"

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
	msgNull     = "This field may not be null."
	msgBoolean  = "Must be a valid boolean."
	msgString   = "Not a valid string."
)

// Error is a failed validation. Fields maps a field name to its messages.
type Error struct {
	Fields map[string][]string
}

func (e *Error) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	if slices.Contains(e.Fields[field], msg) {
		return
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *Error) empty() bool {
	return len(e.Fields) == 0
}

// Error renders every field as "field: messages", sorted by field name and
// joined with "; ".
func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e.Fields[field], " "))
	}
	return strings.Join(parts, "; ")
}
