package matcher

// Options configure matcher evaluation. They are captured at compile time
// so that derived state (regex flags, similarity metric) is built once and
// the compiled matcher stays immutable and shareable across goroutines.
type Options struct {
	// CaseIgnore folds case for ==, !=, =^, =$, =* and regex relations.
	CaseIgnore bool

	// StrsimThreshold is the minimum similarity score for the =* relation,
	// in (0, 1].
	StrsimThreshold float64
}

// DefaultOptions returns the standard evaluation options.
func DefaultOptions() Options {
	return Options{StrsimThreshold: 0.8}
}
