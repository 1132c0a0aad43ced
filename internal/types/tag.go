package types

import "fmt"

// Level classifies a field by the leading digit of its tag.
type Level int

const (
	// LevelMain marks bibliographic fields (tags 0xx).
	LevelMain Level = iota

	// LevelLocal marks local fields (tags 1xx).
	LevelLocal

	// LevelCopy marks copy/holding fields (tags 2xx).
	LevelCopy
)

// String returns the lowercase level name used in CLI output.
func (l Level) String() string {
	switch l {
	case LevelMain:
		return "main"
	case LevelLocal:
		return "local"
	case LevelCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// Tag is a fixed 4-byte field identifier matching [0-2][0-9][0-9][A-Z@].
type Tag [4]byte

// ParseTag validates untrusted bytes and constructs a Tag.
// Returns ErrInvalidTag if b is not exactly four bytes matching the grammar.
func ParseTag(b []byte) (Tag, error) {
	if len(b) != 4 || !validTagBytes(b[0], b[1], b[2], b[3]) {
		return Tag{}, fmt.Errorf("%w: %q", ErrInvalidTag, b)
	}
	return Tag{b[0], b[1], b[2], b[3]}, nil
}

// MustTag constructs a Tag from already-validated data.
// Panics on invalid input; never call it on raw external bytes.
func MustTag(s string) Tag {
	t, err := ParseTag([]byte(s))
	if err != nil {
		panic(err)
	}
	return t
}

// validTagBytes reports whether the four bytes form a well-formed tag.
func validTagBytes(b0, b1, b2, b3 byte) bool {
	return b0 >= '0' && b0 <= '2' &&
		b1 >= '0' && b1 <= '9' &&
		b2 >= '0' && b2 <= '9' &&
		(b3 == '@' || (b3 >= 'A' && b3 <= 'Z'))
}

// Level derives the Main/Local/Copy classification from the leading byte.
func (t Tag) Level() Level {
	switch t[0] {
	case '1':
		return LevelLocal
	case '2':
		return LevelCopy
	default:
		return LevelMain
	}
}

// String returns the tag as a 4-character string.
func (t Tag) String() string {
	return string(t[:])
}
