package matcher

import (
	"fmt"
	"regexp"

	"github.com/adrg/strutil/metrics"
	"github.com/bibkit/pica/internal/types"
)

/*
 * Compilation of parsed matcher syntax into evaluation nodes.
 *
 * Compile validates everything up front: tag/occurrence patterns, subfield
 * codes, operator applicability, regular expressions, and the similarity
 * threshold. Moving error detection to compile time keeps per-record
 * evaluation infallible and lets the invoking command fail fast on a bad
 * rule instead of aborting mid-stream.
 */

// Matcher is a compiled record-level predicate. It is immutable and safe
// for concurrent use across goroutines.
type Matcher struct {
	expr string
	root recordNode
	opts Options
}

// Compile parses and compiles a record matcher expression.
// A zero StrsimThreshold is replaced by the default (0.8).
func Compile(expr string, opts Options) (*Matcher, error) {
	if err := normalizeOptions(&opts); err != nil {
		return nil, &ParseMatcherError{Expr: expr, Err: err}
	}
	syn, err := recordExprParser.ParseString("", expr)
	if err != nil {
		return nil, &ParseMatcherError{Expr: expr, Err: err}
	}
	root, err := compileRecordExpr(syn, &opts)
	if err != nil {
		return nil, &ParseMatcherError{Expr: expr, Err: err}
	}
	return &Matcher{expr: expr, root: root, opts: opts}, nil
}

// Match evaluates the compiled expression against one record.
func (m *Matcher) Match(rec types.Record) bool {
	return m.root.matchRecord(rec, &m.opts)
}

// String returns the original expression text.
func (m *Matcher) String() string {
	return m.expr
}

// SubfieldPredicate is a compiled field-level predicate, used by query
// fragments and format field references to filter candidate fields.
type SubfieldPredicate struct {
	expr string
	root subfieldNode
	opts Options
}

// CompileSubfieldPredicate parses and compiles a standalone subfield
// expression such as "a? && b == 'GND'".
func CompileSubfieldPredicate(expr string, opts Options) (*SubfieldPredicate, error) {
	if err := normalizeOptions(&opts); err != nil {
		return nil, &ParseMatcherError{Expr: expr, Err: err}
	}
	syn, err := subExprParser.ParseString("", expr)
	if err != nil {
		return nil, &ParseMatcherError{Expr: expr, Err: err}
	}
	root, err := compileSubExpr(syn, &opts)
	if err != nil {
		return nil, &ParseMatcherError{Expr: expr, Err: err}
	}
	return &SubfieldPredicate{expr: expr, root: root, opts: opts}, nil
}

// Match evaluates the predicate against one field's subfields.
func (p *SubfieldPredicate) Match(f types.Field) bool {
	return p.root.matchSubfields(f.Subfields, &p.opts)
}

// String returns the original expression text.
func (p *SubfieldPredicate) String() string {
	return p.expr
}

func normalizeOptions(opts *Options) error {
	if opts.StrsimThreshold == 0 {
		opts.StrsimThreshold = DefaultOptions().StrsimThreshold
	}
	if opts.StrsimThreshold < 0 || opts.StrsimThreshold > 1 {
		return fmt.Errorf("similarity threshold %v out of range (0,1]", opts.StrsimThreshold)
	}
	return nil
}

func compileRecordExpr(syn *recordExpr, opts *Options) (recordNode, error) {
	node, err := compileRecordAnd(syn.First, opts)
	if err != nil {
		return nil, err
	}
	for _, rhs := range syn.Rest {
		right, err := compileRecordAnd(rhs, opts)
		if err != nil {
			return nil, err
		}
		node = &recOrNode{lhs: node, rhs: right}
	}
	return node, nil
}

func compileRecordAnd(syn *recordAnd, opts *Options) (recordNode, error) {
	node, err := compileRecordNot(syn.First, opts)
	if err != nil {
		return nil, err
	}
	for _, rhs := range syn.Rest {
		right, err := compileRecordNot(rhs, opts)
		if err != nil {
			return nil, err
		}
		node = &recAndNode{lhs: node, rhs: right}
	}
	return node, nil
}

func compileRecordNot(syn *recordNot, opts *Options) (recordNode, error) {
	var node recordNode
	var err error
	switch {
	case syn.Atom.Group != nil:
		node, err = compileRecordExpr(syn.Atom.Group, opts)
	case syn.Atom.Card != nil:
		node, err = compileFieldCard(syn.Atom.Card, opts)
	case syn.Atom.Scope != nil:
		node, err = compileFieldScope(syn.Atom.Scope, opts)
	default:
		err = fmt.Errorf("empty matcher atom")
	}
	if err != nil {
		return nil, err
	}
	if syn.Not {
		node = &recNotNode{inner: node}
	}
	return node, nil
}

func compileFieldScope(syn *fieldScope, opts *Options) (recordNode, error) {
	tag, err := ParseTagMatcher(syn.Tag)
	if err != nil {
		return nil, err
	}
	occ, err := ParseOccurrenceMatcher(syn.Occ)
	if err != nil {
		return nil, err
	}

	node := &fieldScopeNode{tag: tag, occ: occ}
	switch {
	case syn.Braced != nil:
		node.pred, err = compileSubExpr(syn.Braced, opts)
	case syn.Dotted != nil:
		node.pred, err = compileDotted(syn.Dotted, opts)
	case syn.Exists:
		// Bare existence: any field selected by tag/occurrence.
	default:
		err = fmt.Errorf("field scope %s: missing predicate", syn.Tag)
	}
	if err != nil {
		return nil, err
	}
	return node, nil
}

func compileDotted(syn *dotted, opts *Options) (subfieldNode, error) {
	codes, err := compileCodes(syn.Codes)
	if err != nil {
		return nil, err
	}
	switch {
	case syn.Exists:
		return &existsNode{codes: codes}, nil
	case syn.Rel != nil:
		return compileRelation(codes, quantAny, syn.Rel, opts)
	case syn.In != nil:
		return compileMembership(codes, quantAny, syn.In)
	default:
		return nil, fmt.Errorf("dotted expression: missing relation")
	}
}

func compileFieldCard(syn *fieldCard, opts *Options) (recordNode, error) {
	tag, err := ParseTagMatcher(syn.Tag)
	if err != nil {
		return nil, err
	}
	occ, err := ParseOccurrenceMatcher(syn.Occ)
	if err != nil {
		return nil, err
	}
	op, err := compileCmpOp(syn.Op)
	if err != nil {
		return nil, err
	}
	node := &fieldCardNode{tag: tag, occ: occ, op: op, n: syn.N}
	if syn.Pred != nil {
		node.pred, err = compileSubExpr(syn.Pred, opts)
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

func compileSubExpr(syn *subExpr, opts *Options) (subfieldNode, error) {
	node, err := compileSubAnd(syn.First, opts)
	if err != nil {
		return nil, err
	}
	for _, rhs := range syn.Rest {
		right, err := compileSubAnd(rhs, opts)
		if err != nil {
			return nil, err
		}
		node = &subOrNode{lhs: node, rhs: right}
	}
	return node, nil
}

func compileSubAnd(syn *subAnd, opts *Options) (subfieldNode, error) {
	node, err := compileSubNot(syn.First, opts)
	if err != nil {
		return nil, err
	}
	for _, rhs := range syn.Rest {
		right, err := compileSubNot(rhs, opts)
		if err != nil {
			return nil, err
		}
		node = &subAndNode{lhs: node, rhs: right}
	}
	return node, nil
}

func compileSubNot(syn *subNot, opts *Options) (subfieldNode, error) {
	var node subfieldNode
	var err error
	switch {
	case syn.Atom.Group != nil:
		node, err = compileSubExpr(syn.Atom.Group, opts)
	case syn.Atom.Card != nil:
		node, err = compileSubCard(syn.Atom.Card)
	case syn.Atom.Pred != nil:
		node, err = compileSubPred(syn.Atom.Pred, opts)
	default:
		err = fmt.Errorf("empty subfield atom")
	}
	if err != nil {
		return nil, err
	}
	if syn.Not {
		node = &subNotNode{inner: node}
	}
	return node, nil
}

func compileSubCard(syn *subCard) (subfieldNode, error) {
	codes, err := compileCodes(syn.Codes)
	if err != nil {
		return nil, err
	}
	if syn.Lo != nil && syn.Hi != nil {
		if *syn.Lo > *syn.Hi {
			return nil, fmt.Errorf("cardinality range %d..%d: empty", *syn.Lo, *syn.Hi)
		}
		return &cardinalityNode{codes: codes, ranged: true, lo: *syn.Lo, hi: *syn.Hi}, nil
	}
	op, err := compileCmpOp(*syn.Op)
	if err != nil {
		return nil, err
	}
	return &cardinalityNode{codes: codes, op: op, n: *syn.N}, nil
}

func compileSubPred(syn *subPred, opts *Options) (subfieldNode, error) {
	codes, err := compileCodes(syn.Codes)
	if err != nil {
		return nil, err
	}
	quant := quantAny
	if syn.Quant == "ALL" {
		quant = quantAll
	}
	switch {
	case syn.Exists:
		if quant == quantAll {
			return nil, fmt.Errorf("ALL quantifier cannot scope an existence test")
		}
		return &existsNode{codes: codes}, nil
	case syn.Rel != nil:
		return compileRelation(codes, quant, syn.Rel, opts)
	case syn.In != nil:
		return compileMembership(codes, quant, syn.In)
	default:
		return nil, fmt.Errorf("subfield predicate: missing relation")
	}
}

func compileRelation(codes []types.SubfieldCode, quant quantifier, syn *relTail, opts *Options) (subfieldNode, error) {
	node := &relationNode{codes: codes, quant: quant, value: []byte(unquote(syn.Value))}
	switch syn.Op {
	case "==":
		node.op = opEq
	case "!=":
		node.op = opNe
	case "=^":
		node.op = opStartsWith
	case "=$":
		node.op = opEndsWith
	case "=*":
		node.op = opSimilar
		metric := metrics.NewJaroWinkler()
		metric.CaseSensitive = !opts.CaseIgnore
		node.metric = metric
	case "=~", "!~":
		pattern := unquote(syn.Value)
		if opts.CaseIgnore {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", unquote(syn.Value), err)
		}
		node.re = re
		node.op = opRegex
		if syn.Op == "!~" {
			node.op = opNotRegex
		}
	default:
		return nil, fmt.Errorf("unknown relational operator %q", syn.Op)
	}
	return node, nil
}

func compileMembership(codes []types.SubfieldCode, quant quantifier, syn *inTail) (subfieldNode, error) {
	if len(syn.Values) == 0 {
		return nil, fmt.Errorf("empty membership list")
	}
	node := &relationNode{codes: codes, quant: quant, op: opIn}
	if syn.Not {
		node.op = opNotIn
	}
	for _, v := range syn.Values {
		node.values = append(node.values, []byte(unquote(v)))
	}
	return node, nil
}

// compileCmpOp maps the textual operator to a cmpOp. Only equality and
// ordering operators apply to counts.
func compileCmpOp(op string) (cmpOp, error) {
	switch op {
	case "==":
		return cmpEq, nil
	case "!=":
		return cmpNe, nil
	case ">":
		return cmpGt, nil
	case ">=":
		return cmpGe, nil
	case "<":
		return cmpLt, nil
	case "<=":
		return cmpLe, nil
	default:
		return 0, fmt.Errorf("operator %q not applicable to cardinality", op)
	}
}

// compileCodes flattens a code list token into validated subfield codes.
func compileCodes(syn *codeList) ([]types.SubfieldCode, error) {
	var raw string
	switch {
	case syn.One != nil:
		raw = *syn.One
		if len(raw) != 1 {
			return nil, fmt.Errorf("subfield code %q: must be a single character", raw)
		}
	default:
		for _, part := range syn.List {
			raw += part
		}
		if raw == "" {
			return nil, fmt.Errorf("empty subfield code list")
		}
	}
	codes := make([]types.SubfieldCode, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c, err := types.ParseSubfieldCode(raw[i])
		if err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, nil
}

// unquote strips the single quotes of a String token.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}
