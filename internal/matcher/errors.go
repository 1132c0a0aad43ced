package matcher

import "fmt"

// ParseMatcherError reports malformed matcher source text. This is a
// compile-time failure: it is fatal to the invoking command and never
// occurs per record.
type ParseMatcherError struct {
	Expr string // the offending expression text
	Err  error
}

// Error implements the error interface.
func (e *ParseMatcherError) Error() string {
	return fmt.Sprintf("invalid matcher expression %q: %v", e.Expr, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *ParseMatcherError) Unwrap() error {
	return e.Err
}
