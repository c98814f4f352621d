package calculator

import "fmt"

// Evaluate computes a calculator expression locally.
//
// The input is normalized and classified first; complex input is never
// evaluated and yields the error marker with ErrComplexExpression. Any parse
// failure or non-finite value also yields the error marker, so callers decide
// on escalation from Result.Cause alone. Evaluate never panics.
func Evaluate(expression string) Result {
	normalized := Normalize(expression)
	if Classify(normalized) == ClassComplex {
		return Failure(ErrComplexExpression)
	}

	v, err := evaluate(normalized)
	if err != nil {
		return Failure(fmt.Errorf("evaluate(%q) > %w", normalized, err))
	}
	return FormatNumber(v)
}
