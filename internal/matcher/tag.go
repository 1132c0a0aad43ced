package matcher

import (
	"fmt"

	"github.com/bibkit/pica/internal/types"
)

// position alphabets of the tag grammar; ranges inside classes are
// defined on the ASCII ordering of the slice for that position, not
// globally.
var tagAlphabets = [4]struct{ lo, hi byte }{
	{'0', '2'},
	{'0', '9'},
	{'0', '9'},
	{'A', 'Z'},
}

// TagMatcher matches tags against a 4-position character-class pattern.
// Each position is a literal byte, the `.` wildcard, or an explicit class
// `[...]` whose items are single bytes or inclusive ranges `a-b`.
type TagMatcher struct {
	pattern string
	allowed [4][256]bool
}

// ParseTagMatcher compiles a pattern such as "012A", "0..A" or "01[2-4]A".
func ParseTagMatcher(pattern string) (*TagMatcher, error) {
	m := &TagMatcher{pattern: pattern}
	rest := pattern
	for pos := 0; pos < 4; pos++ {
		var err error
		rest, err = m.parsePosition(pos, rest)
		if err != nil {
			return nil, fmt.Errorf("tag pattern %q: %w", pattern, err)
		}
	}
	if rest != "" {
		return nil, fmt.Errorf("tag pattern %q: trailing input %q", pattern, rest)
	}
	return m, nil
}

// MustTagMatcher compiles a pattern known to be valid. Panics otherwise;
// only call it on literals or the output of a successful validation.
func MustTagMatcher(pattern string) *TagMatcher {
	m, err := ParseTagMatcher(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// parsePosition consumes one position's pattern from s and fills the
// allowed byte set.
func (m *TagMatcher) parsePosition(pos int, s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("position %d: unexpected end of pattern", pos)
	}
	switch c := s[0]; {
	case c == '.':
		for b := tagAlphabets[pos].lo; ; b++ {
			m.allowed[pos][b] = true
			if b == tagAlphabets[pos].hi {
				break
			}
		}
		if pos == 3 {
			m.allowed[pos]['@'] = true
		}
		return s[1:], nil
	case c == '[':
		return m.parseClass(pos, s[1:])
	case m.inAlphabet(pos, c):
		m.allowed[pos][c] = true
		return s[1:], nil
	default:
		return "", fmt.Errorf("position %d: invalid byte %q", pos, string(c))
	}
}

// parseClass consumes a class body up to the closing bracket.
func (m *TagMatcher) parseClass(pos int, s string) (string, error) {
	seen := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ']' {
			if !seen {
				return "", fmt.Errorf("position %d: empty class", pos)
			}
			return s[i+1:], nil
		}
		if !m.inAlphabet(pos, c) {
			return "", fmt.Errorf("position %d: invalid class byte %q", pos, string(c))
		}
		// Range item a-b, inclusive on the position's alphabet slice.
		if i+2 < len(s) && s[i+1] == '-' && s[i+2] != ']' {
			hi := s[i+2]
			if !m.inAlphabet(pos, hi) || hi < c {
				return "", fmt.Errorf("position %d: invalid range %q", pos, s[i:i+3])
			}
			for b := c; b <= hi; b++ {
				m.allowed[pos][b] = true
			}
			seen = true
			i += 2
			continue
		}
		m.allowed[pos][c] = true
		seen = true
	}
	return "", fmt.Errorf("position %d: unterminated class", pos)
}

// inAlphabet reports whether b is a member of the position's alphabet.
func (m *TagMatcher) inAlphabet(pos int, b byte) bool {
	a := tagAlphabets[pos]
	if b >= a.lo && b <= a.hi {
		return true
	}
	return pos == 3 && b == '@'
}

// Match reports whether the tag is contained in every position's allowed
// byte set.
func (m *TagMatcher) Match(t types.Tag) bool {
	return m.allowed[0][t[0]] && m.allowed[1][t[1]] && m.allowed[2][t[2]] && m.allowed[3][t[3]]
}

// String returns the original pattern text.
func (m *TagMatcher) String() string {
	return m.pattern
}
