package types

import (
	"bytes"
	"fmt"
)

// SubfieldCode is a single ASCII alphanumeric subfield identifier.
type SubfieldCode byte

// ParseSubfieldCode validates an untrusted byte and constructs a SubfieldCode.
func ParseSubfieldCode(b byte) (SubfieldCode, error) {
	if !ValidSubfieldCode(b) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSubfieldCode, string(b))
	}
	return SubfieldCode(b), nil
}

// MustSubfieldCode constructs a SubfieldCode from already-validated data.
// Panics on invalid input; never call it on raw external bytes.
func MustSubfieldCode(b byte) SubfieldCode {
	c, err := ParseSubfieldCode(b)
	if err != nil {
		panic(err)
	}
	return c
}

// ValidSubfieldCode reports whether b is ASCII alphanumeric.
func ValidSubfieldCode(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Subfield is a (code, value) pair. The value may be empty and may alias
// the input buffer the record was parsed from; Clone copies it out.
type Subfield struct {
	Code  SubfieldCode
	Value []byte
}

// NewSubfield validates untrusted code and value bytes.
// The value must not contain the US (0x1F) or RS (0x1E) control bytes.
func NewSubfield(code byte, value []byte) (Subfield, error) {
	c, err := ParseSubfieldCode(code)
	if err != nil {
		return Subfield{}, err
	}
	if bytes.IndexByte(value, US) >= 0 || bytes.IndexByte(value, RS) >= 0 {
		return Subfield{}, fmt.Errorf("%w: contains control byte", ErrInvalidSubfieldValue)
	}
	return Subfield{Code: c, Value: value}, nil
}

// MustSubfield constructs a Subfield from already-validated data.
// Panics on contract violation; never call it on raw external bytes.
func MustSubfield(code byte, value string) Subfield {
	sf, err := NewSubfield(code, []byte(value))
	if err != nil {
		panic(err)
	}
	return sf
}

// Clone returns a Subfield whose value no longer aliases the input buffer.
func (s Subfield) Clone() Subfield {
	return Subfield{Code: s.Code, Value: bytes.Clone(s.Value)}
}
