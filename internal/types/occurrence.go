package types

import "fmt"

// Occurrence is an optional 2-3 digit repetition-instance suffix on a
// field. The zero value ("") means the field carries no occurrence, which
// is semantically distinct from "matches any occurrence" in the matcher
// language.
type Occurrence string

// ParseOccurrence validates untrusted bytes and constructs an Occurrence.
// Returns ErrInvalidOccurrence unless b is 2-3 ASCII digits.
func ParseOccurrence(b []byte) (Occurrence, error) {
	if len(b) < 2 || len(b) > 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidOccurrence, b)
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("%w: %q", ErrInvalidOccurrence, b)
		}
	}
	return Occurrence(b), nil
}

// MustOccurrence constructs an Occurrence from already-validated data.
// Panics on invalid input; never call it on raw external bytes.
func MustOccurrence(s string) Occurrence {
	o, err := ParseOccurrence([]byte(s))
	if err != nil {
		panic(err)
	}
	return o
}

// IsNone reports whether the field carries no occurrence.
func (o Occurrence) IsNone() bool {
	return o == ""
}

// String returns the occurrence digits, or the empty string for none.
func (o Occurrence) String() string {
	return string(o)
}
