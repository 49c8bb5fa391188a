package errors

import (
	// Go Internal Packages
	"fmt"
	"strings"
)

type fieldErr struct {
	field string
	msg   string
}

// ValidationErrors accumulates field level problems found while validating
// a value, keeping them in the order they were added.
type ValidationErrors struct {
	errs []fieldErr
}

func ValidationErrs() *ValidationErrors {
	return &ValidationErrors{}
}

// Add records a problem with field.
func (v *ValidationErrors) Add(field, msg string) {
	v.errs = append(v.errs, fieldErr{field: field, msg: msg})
}

// Len returns the number of recorded problems.
func (v *ValidationErrors) Len() int {
	return len(v.errs)
}

// Err returns nil when nothing was recorded.
func (v *ValidationErrors) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	parts := make([]string, len(v.errs))
	for i, fe := range v.errs {
		parts[i] = fmt.Sprintf("%s %s", fe.field, fe.msg)
	}
	return E(Invalid, strings.Join(parts, "; "), nil)
}
