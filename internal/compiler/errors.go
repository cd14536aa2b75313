package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRecursiveAsset is returned when an asset references itself, directly or
// through other assets.
var ErrRecursiveAsset = errors.New("recursive asset reference")

// ValidationError is one rejected field of a document.
type ValidationError struct {
	Key    string // path in the document, e.g. "nodes[1].kind"
	Reason string
	Value  any // nil when the field is missing
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("%s: %s, got %v", e.Key, e.Reason, e.Value)
}

// DocumentError lists every rejected field of one document, in field order.
type DocumentError struct {
	Errors []error
}

func (e *DocumentError) Error() string {
	if len(e.Errors) == 1 {
		return "invalid document: " + e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid document (%d fields):", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *DocumentError) Unwrap() []error { return e.Errors }

// ValidationErrors returns the field errors carried by err, or nil when err
// is not a document validation failure.
func ValidationErrors(err error) []error {
	var de *DocumentError
	if errors.As(err, &de) {
		return de.Errors
	}
	return nil
}
