// Package types provides the PICA+ record model shared across all engines.
//
// Zero-dependency design: the model is pure value types plus validation
// predicates, so the matcher, selector and format engines can depend on it
// without pulling in any parsing machinery. ID utilities in ids.go import
// uuid but are isolated for selective inclusion.
//
// Every validated type comes in two construction flavors: a fallible
// Parse* constructor for untrusted input that returns a typed error, and a
// Must* constructor for data that already passed validation elsewhere.
// Must* panics on contract violation; that is a programming error channel,
// deliberately distinct from per-record parse errors.
package types

// Control bytes of the PICA+ wire format. Subfield values must never
// contain either byte; the grammar has no escaping mechanism.
const (
	// RS terminates a field (record-separator variant, 0x1E).
	RS = 0x1E

	// US introduces a subfield (unit separator, 0x1F).
	US = 0x1F
)
