// Package calculator classifies calculator input and evaluates simple arithmetic locally.
package calculator

import "errors"

// ErrorMarker is the display string for every unrecoverable outcome.
const ErrorMarker = "Error"

var (
	// ErrComplexExpression is returned for input outside the simple arithmetic character set.
	ErrComplexExpression = errors.New("expression contains characters outside simple arithmetic")
	// ErrStructural is returned for malformed simple expressions.
	ErrStructural = errors.New("structurally invalid expression")
	// ErrNonFinite is returned when the computed value is infinite or NaN.
	ErrNonFinite = errors.New("result is not finite")
)

// Kind discriminates the shape of a Result.
type Kind int

const (
	KindNumber Kind = iota
	KindText
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the terminal outcome of one evaluation. Value is always a display string.
type Result struct {
	Value string
	Kind  Kind
	// Cause is set only for KindError
	Cause error
}

// Number builds a numeric result from an already formatted string.
func Number(value string) Result {
	return Result{Value: value, Kind: KindNumber}
}

// Text builds a free-form textual result.
func Text(value string) Result {
	return Result{Value: value, Kind: KindText}
}

// Failure builds the error marker result for the given cause.
func Failure(cause error) Result {
	return Result{Value: ErrorMarker, Kind: KindError, Cause: cause}
}

func (r Result) IsError() bool {
	return r.Kind == KindError
}
