// Package lint checks records against configurable rule sets.
//
// A rule set is a YAML document declaring a closed set of check kinds:
// filter (record matcher that must, or must not, match), checksum
// (ISNI/ORCID check digit over path values), date (path values must parse
// under a layout) and unicode (path values must be valid UTF-8, optionally
// NFC). Kind dispatch is exhaustive; an unknown kind fails the load.
//
// Checks are pure per-record evaluators. Any cross-record state, such as
// uniqueness accumulators, belongs to the driver, never to a check.
package lint

import "fmt"

// Severity grades a finding.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// ParseSeverity parses a severity keyword. The empty string defaults to
// error, the strictest grade.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "", "error":
		return SeverityError, nil
	case "warning":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Finding is one rule violation on one record.
type Finding struct {
	Rule     string
	Severity Severity
	Message  string
}
