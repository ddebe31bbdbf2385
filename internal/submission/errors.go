package submission

import (
	"errors"
	"fmt"
)

// ErrNoMedia is wrapped by the ValidationError returned when nothing is selected.
var ErrNoMedia = errors.New("no video selected")

// ValidationError reports a submit rejected before any stage ran.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error formats validation failures for UI.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap exposes the sentinel, if any.
func (e *ValidationError) Unwrap() error { return e.Err }

// Kind names the error class.
func (e *ValidationError) Kind() string { return "ValidationError" }

// kinded is implemented by every stage error.
type kinded interface {
	Kind() string
}

// errorKind returns the class name of err, or "Error" when it has none.
func errorKind(err error) string {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return "Error"
}
