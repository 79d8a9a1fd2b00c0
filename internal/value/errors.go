package value

import (
	"fmt"
	"strings"
)

// ErrorPrefix starts every error rendered into a cell.
const ErrorPrefix = "#ERROR"

// ErrorKind classifies formula evaluation failures.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	// MissingReference: a {ColumnName} has no entry in the row's data.
	MissingReference
	// NonNumericReference: a referenced value is not a number in arithmetic mode.
	NonNumericReference
	// InvalidExpression: the arithmetic parser rejected the expression.
	InvalidExpression
	// InvalidArguments: a function received the wrong count or shape of arguments.
	InvalidArguments
	// InvalidDate: a date argument failed every supported format.
	InvalidDate
	// NotFound: FIND could not locate the search text.
	NotFound
)

func (k ErrorKind) String() string {
	switch k {
	case MissingReference:
		return "MissingReference"
	case NonNumericReference:
		return "NonNumericReference"
	case InvalidExpression:
		return "InvalidExpression"
	case InvalidArguments:
		return "InvalidArguments"
	case InvalidDate:
		return "InvalidDate"
	case NotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// FormulaError is a recoverable evaluation failure. It is rendered into
// the cell instead of aborting propagation.
type FormulaError struct {
	Kind    ErrorKind
	Message string
}

// Errorf constructs a FormulaError of the given kind.
func Errorf(kind ErrorKind, format string, args ...interface{}) *FormulaError {
	return &FormulaError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *FormulaError) Error() string {
	return ErrorPrefix + ": " + e.Message
}

// IsErrorText reports whether a display string is a rendered error.
func IsErrorText(s string) bool {
	return strings.HasPrefix(s, ErrorPrefix) || strings.HasPrefix(s, "Error:")
}
