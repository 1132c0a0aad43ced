package matcher

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/bibkit/pica/internal/types"
)

/*
 * Matcher evaluation nodes.
 *
 * Boolean combination is an explicit tagged AST (and/or/not nodes over a
 * node interface) evaluated by a recursive interpreter, so the algebraic
 * laws (commutativity of && and ||, De Morgan) fall out of the evaluation
 * semantics instead of host-language operator tricks.
 *
 * All nodes are immutable after compilation and safe to share across
 * goroutines: regexes and the similarity metric are built once in
 * compile.go, and evaluation touches only the record passed in.
 *
 * Quantifier semantics: ANY (the default) is true when at least one
 * subfield with a requested code satisfies the relation. ALL requires
 * every such subfield to satisfy it and is vacuously true when none
 * exist; downstream rule sets rely on this for presence-or-absence
 * gating, so it must not be "fixed".
 */

// relOp enumerates the relational operators of the matcher language.
type relOp int

const (
	opEq         relOp = iota // ==
	opNe                      // !=
	opStartsWith              // =^
	opEndsWith                // =$
	opSimilar                 // =*
	opRegex                   // =~
	opNotRegex                // !~
	opIn                      // in [...]
	opNotIn                   // not in [...]
)

// cmpOp enumerates comparison operators for cardinality checks.
type cmpOp int

const (
	cmpEq cmpOp = iota
	cmpNe
	cmpGt
	cmpGe
	cmpLt
	cmpLe
)

func (c cmpOp) apply(n, m int) bool {
	switch c {
	case cmpEq:
		return n == m
	case cmpNe:
		return n != m
	case cmpGt:
		return n > m
	case cmpGe:
		return n >= m
	case cmpLt:
		return n < m
	case cmpLe:
		return n <= m
	default:
		return false
	}
}

// quantifier scopes a relation over multiple same-coded subfields.
type quantifier int

const (
	quantAny quantifier = iota
	quantAll
)

// subfieldNode is a predicate over the subfields of a single field.
type subfieldNode interface {
	matchSubfields(sfs []types.Subfield, o *Options) bool
}

// existsNode implements the existence test `a?`.
type existsNode struct {
	codes []types.SubfieldCode
}

func (n *existsNode) matchSubfields(sfs []types.Subfield, o *Options) bool {
	for _, sf := range sfs {
		if n.hasCode(sf.Code) {
			return true
		}
	}
	return false
}

func (n *existsNode) hasCode(c types.SubfieldCode) bool {
	for _, code := range n.codes {
		if code == c {
			return true
		}
	}
	return false
}

// relationNode implements all value relations, quantified over the
// subfields carrying one of the requested codes.
type relationNode struct {
	codes  []types.SubfieldCode
	op     relOp
	quant  quantifier
	value  []byte     // literal operand for ==, !=, =^, =$, =*
	values [][]byte   // literal list for in / not in
	re     *regexp.Regexp
	metric *metrics.JaroWinkler
}

func (n *relationNode) matchSubfields(sfs []types.Subfield, o *Options) bool {
	if n.quant == quantAll {
		// Vacuously true when no subfield carries a requested code.
		for _, sf := range sfs {
			if n.hasCode(sf.Code) && !n.satisfied(sf.Value, o) {
				return false
			}
		}
		return true
	}
	for _, sf := range sfs {
		if n.hasCode(sf.Code) && n.satisfied(sf.Value, o) {
			return true
		}
	}
	return false
}

func (n *relationNode) hasCode(c types.SubfieldCode) bool {
	for _, code := range n.codes {
		if code == c {
			return true
		}
	}
	return false
}

// satisfied applies the relational operator to one subfield value.
func (n *relationNode) satisfied(v []byte, o *Options) bool {
	switch n.op {
	case opEq:
		return bytesEqual(v, n.value, o.CaseIgnore)
	case opNe:
		return !bytesEqual(v, n.value, o.CaseIgnore)
	case opStartsWith:
		return bytesHasPrefix(v, n.value, o.CaseIgnore)
	case opEndsWith:
		return bytesHasSuffix(v, n.value, o.CaseIgnore)
	case opSimilar:
		score := strutil.Similarity(string(v), string(n.value), n.metric)
		return score >= o.StrsimThreshold
	case opRegex:
		return n.re.Match(v)
	case opNotRegex:
		return !n.re.Match(v)
	case opIn:
		return n.inList(v, o)
	case opNotIn:
		return !n.inList(v, o)
	default:
		return false
	}
}

func (n *relationNode) inList(v []byte, o *Options) bool {
	for _, lit := range n.values {
		if bytesEqual(v, lit, o.CaseIgnore) {
			return true
		}
	}
	return false
}

func bytesEqual(a, b []byte, fold bool) bool {
	if fold {
		return bytes.EqualFold(a, b)
	}
	return bytes.Equal(a, b)
}

func bytesHasPrefix(v, prefix []byte, fold bool) bool {
	if fold {
		return strings.HasPrefix(strings.ToLower(string(v)), strings.ToLower(string(prefix)))
	}
	return bytes.HasPrefix(v, prefix)
}

func bytesHasSuffix(v, suffix []byte, fold bool) bool {
	if fold {
		return strings.HasSuffix(strings.ToLower(string(v)), strings.ToLower(string(suffix)))
	}
	return bytes.HasSuffix(v, suffix)
}

// cardinalityNode implements subfield counting: `#a == 2`, `#a in 1..3`.
type cardinalityNode struct {
	codes  []types.SubfieldCode
	op     cmpOp
	n      int
	lo, hi int
	ranged bool
}

func (n *cardinalityNode) matchSubfields(sfs []types.Subfield, o *Options) bool {
	count := 0
	for _, sf := range sfs {
		for _, code := range n.codes {
			if sf.Code == code {
				count++
				break
			}
		}
	}
	if n.ranged {
		return count >= n.lo && count <= n.hi
	}
	return n.op.apply(count, n.n)
}

// Boolean combinators over subfield predicates.

type subNotNode struct{ inner subfieldNode }

func (n *subNotNode) matchSubfields(sfs []types.Subfield, o *Options) bool {
	return !n.inner.matchSubfields(sfs, o)
}

type subAndNode struct{ lhs, rhs subfieldNode }

func (n *subAndNode) matchSubfields(sfs []types.Subfield, o *Options) bool {
	return n.lhs.matchSubfields(sfs, o) && n.rhs.matchSubfields(sfs, o)
}

type subOrNode struct{ lhs, rhs subfieldNode }

func (n *subOrNode) matchSubfields(sfs []types.Subfield, o *Options) bool {
	return n.lhs.matchSubfields(sfs, o) || n.rhs.matchSubfields(sfs, o)
}

// recordNode is a predicate over a whole record.
type recordNode interface {
	matchRecord(rec types.Record, o *Options) bool
}

// fieldScopeNode scopes a subfield predicate to fields selected by a
// tag/occurrence matcher pair. A nil predicate is a bare existence test
// (`012A?`). True when at least one selected field satisfies the
// predicate.
type fieldScopeNode struct {
	tag  *TagMatcher
	occ  OccurrenceMatcher
	pred subfieldNode
}

func (n *fieldScopeNode) matchRecord(rec types.Record, o *Options) bool {
	for _, f := range rec.Fields {
		if !n.tag.Match(f.Tag) || !n.occ.Match(f.Occurrence) {
			continue
		}
		if n.pred == nil || n.pred.matchSubfields(f.Subfields, o) {
			return true
		}
	}
	return false
}

// fieldCardNode counts fields selected by tag/occurrence (and an optional
// subfield predicate) and compares the count: `#010@ == 1`.
type fieldCardNode struct {
	tag  *TagMatcher
	occ  OccurrenceMatcher
	pred subfieldNode
	op   cmpOp
	n    int
}

func (n *fieldCardNode) matchRecord(rec types.Record, o *Options) bool {
	count := 0
	for _, f := range rec.Fields {
		if !n.tag.Match(f.Tag) || !n.occ.Match(f.Occurrence) {
			continue
		}
		if n.pred == nil || n.pred.matchSubfields(f.Subfields, o) {
			count++
		}
	}
	return n.op.apply(count, n.n)
}

// Boolean combinators over record predicates.

type recNotNode struct{ inner recordNode }

func (n *recNotNode) matchRecord(rec types.Record, o *Options) bool {
	return !n.inner.matchRecord(rec, o)
}

type recAndNode struct{ lhs, rhs recordNode }

func (n *recAndNode) matchRecord(rec types.Record, o *Options) bool {
	return n.lhs.matchRecord(rec, o) && n.rhs.matchRecord(rec, o)
}

type recOrNode struct{ lhs, rhs recordNode }

func (n *recOrNode) matchRecord(rec types.Record, o *Options) bool {
	return n.lhs.matchRecord(rec, o) || n.rhs.matchRecord(rec, o)
}
