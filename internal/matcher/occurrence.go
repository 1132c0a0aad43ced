package matcher

import (
	"fmt"
	"strings"

	"github.com/bibkit/pica/internal/types"
)

type occKind int

const (
	occNone occKind = iota // unwritten: only fields without an occurrence
	occAny                 // /*
	occEq                  // /NN
	occRange               // /NN-MM
)

// OccurrenceMatcher matches a field's occurrence. The zero value matches
// only fields without an occurrence (or the equivalent /00), which is
// distinct from the explicit any-matcher /*.
//
// Literal and range matching is width-sensitive: /01-03 matches "02" but
// not "002".
type OccurrenceMatcher struct {
	kind   occKind
	lo, hi types.Occurrence
}

// AnyOccurrence matches every occurrence including none.
func AnyOccurrence() OccurrenceMatcher {
	return OccurrenceMatcher{kind: occAny}
}

// ParseOccurrenceMatcher compiles an occurrence pattern including its
// leading slash: "", "/*", "/00", "/01-03".
func ParseOccurrenceMatcher(s string) (OccurrenceMatcher, error) {
	if s == "" {
		return OccurrenceMatcher{}, nil
	}
	if s[0] != '/' {
		return OccurrenceMatcher{}, fmt.Errorf("occurrence matcher %q: missing slash", s)
	}
	body := s[1:]
	if body == "*" {
		return OccurrenceMatcher{kind: occAny}, nil
	}
	if lo, hi, ok := strings.Cut(body, "-"); ok {
		l, err := types.ParseOccurrence([]byte(lo))
		if err != nil {
			return OccurrenceMatcher{}, fmt.Errorf("occurrence matcher %q: %w", s, err)
		}
		h, err := types.ParseOccurrence([]byte(hi))
		if err != nil {
			return OccurrenceMatcher{}, fmt.Errorf("occurrence matcher %q: %w", s, err)
		}
		if len(l) != len(h) || l >= h {
			return OccurrenceMatcher{}, fmt.Errorf("occurrence matcher %q: invalid range", s)
		}
		return OccurrenceMatcher{kind: occRange, lo: l, hi: h}, nil
	}
	o, err := types.ParseOccurrence([]byte(body))
	if err != nil {
		return OccurrenceMatcher{}, fmt.Errorf("occurrence matcher %q: %w", s, err)
	}
	return OccurrenceMatcher{kind: occEq, lo: o}, nil
}

// Match reports whether the matcher accepts occurrence o.
func (m OccurrenceMatcher) Match(o types.Occurrence) bool {
	switch m.kind {
	case occAny:
		return true
	case occNone:
		// /00 is the written form of "no occurrence".
		return o.IsNone() || o == "00"
	case occEq:
		if m.lo == "00" && o.IsNone() {
			return true
		}
		return o == m.lo
	case occRange:
		// Width-sensitive: same digit count, then lexicographic compare.
		return len(o) == len(m.lo) && o >= m.lo && o <= m.hi
	default:
		return false
	}
}

// String renders the matcher back as pattern text.
func (m OccurrenceMatcher) String() string {
	switch m.kind {
	case occAny:
		return "/*"
	case occEq:
		return "/" + string(m.lo)
	case occRange:
		return "/" + string(m.lo) + "-" + string(m.hi)
	default:
		return ""
	}
}
