// Package validation checks collector input before it reaches the service.
// Rules record failures on a Collector so a request reports every bad field
// at once.
package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the accepted calendar date format.
const DateLayout = "2006-01-02"

// ValidationError is one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// Collector accumulates rejected fields.
type Collector struct {
	errors []ValidationError
}

// Fail records a failure for field.
func (c *Collector) Fail(field, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	c.errors = append(c.errors, ValidationError{Field: field, Message: msg})
}

// HasErrors reports whether any rule failed.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns the recorded failures in the order the rules ran.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// Text requires well-formed UTF-8 without NUL bytes and at most max runes.
// Only the first problem with a value is recorded.
func (c *Collector) Text(field, value string, max int) bool {
	switch {
	case !utf8.ValidString(value):
		c.Fail(field, "must be valid UTF-8")
	case strings.IndexByte(value, 0) >= 0:
		c.Fail(field, "must not contain null bytes")
	case utf8.RuneCountInString(value) > max:
		c.Fail(field, "exceeds maximum length of %d characters", max)
	default:
		return true
	}
	return false
}

// Required rejects empty and whitespace-only values.
func (c *Collector) Required(field, value string) bool {
	if blank(value) {
		c.Fail(field, "is required")
		return false
	}
	return true
}

// Date requires a real calendar date in DateLayout.
func (c *Collector) Date(field, value string) bool {
	if _, err := time.Parse(DateLayout, value); err != nil {
		c.Fail(field, "must be a date in YYYY-MM-DD format")
		return false
	}
	return true
}

// OneOf requires an exact, case-sensitive match against allowed.
func (c *Collector) OneOf(field, value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	c.Fail(field, "must be one of: %s", strings.Join(allowed, ", "))
	return false
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
