package engine

import (
	"errors"
	"fmt"
)

// InvalidInputError reports a structural problem in the inputs, detected
// before any search begins. Data-driven infeasibility is never an error;
// it surfaces as shortfalls in the report.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

func invalidInputf(format string, args ...any) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

// IsInvalidInput reports whether err is an input validation failure, as
// opposed to an infrastructure error.
func IsInvalidInput(err error) bool {
	var iie *InvalidInputError
	return errors.As(err, &iie)
}
