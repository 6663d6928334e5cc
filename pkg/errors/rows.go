package errors

import (
	"fmt"

	"go.uber.org/multierr"
)

const maxReportedRows = 50

// RowError pins a failure to a line of bulk input (the header is line 1).
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	msg := e.Err.Error()
	if typed := As(e.Err); typed != nil {
		msg = typed.Message()
	}
	if e.Column == "" {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Column, msg)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Rejected folds aggregated row errors into one validation error listing
// the first messages and the total count.
func Rejected(message string, err error) *Error {
	errs := multierr.Errors(err)
	msgs := make([]string, 0, len(errs))
	for i, e := range errs {
		if i == maxReportedRows {
			break
		}
		msgs = append(msgs, e.Error())
	}
	return Wrap(CodeValidation, err, message).
		WithDetails(map[string]any{"errors": msgs, "count": len(errs)})
}
