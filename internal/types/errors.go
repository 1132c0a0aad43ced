package types

import "errors"

// Sentinel errors for record model validation.
var (
	// ErrInvalidTag indicates a tag outside the [0-2][0-9][0-9][A-Z@] grammar.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrInvalidOccurrence indicates an occurrence that is not 2-3 ASCII digits.
	ErrInvalidOccurrence = errors.New("invalid occurrence")

	// ErrInvalidSubfieldCode indicates a subfield code that is not ASCII alphanumeric.
	ErrInvalidSubfieldCode = errors.New("invalid subfield code")

	// ErrInvalidSubfieldValue indicates a subfield value containing a control byte.
	ErrInvalidSubfieldValue = errors.New("invalid subfield value")
)
