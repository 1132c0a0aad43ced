package selector

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/bibkit/pica/internal/matcher"
	"github.com/bibkit/pica/internal/types"
)

/*
 * Query evaluation.
 *
 * A query is a comma-separated list of fragments:
 *
 *	003@.0, 044H{ 9, b | b == 'GND' }
 *
 * Each fragment yields one value group per field it matches, with one
 * column per requested code; repeated codes within a field multiply into
 * rows (cartesian product). Fragments combine by cartesian product in
 * declaration order.
 *
 * Row-shape boundary: when no fragment matches any field the query yields
 * zero rows, never a single all-empty row. When only some fragments miss,
 * the missing ones contribute empty-string columns so the other
 * fragments' rows survive. Suppressing rows whose every column is empty
 * is deliberately a caller concern (frequency tables do it); the selector
 * always returns the full table.
 */

type fragHead struct {
	Tag string `parser:"@TagPat"`
	Occ string `parser:"@Occ?"`
}

type colSyntax struct {
	Codes *codeList `parser:"@@"`
	Index *int      `parser:"( '[' @Number ']' )?"`
}

var fragHeadParser = participle.MustBuild[fragHead](
	participle.Lexer(pathLexer),
	participle.Elide("Whitespace"),
)

var colParser = participle.MustBuild[colSyntax](
	participle.Lexer(pathLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// column addresses one output column within a fragment's fields.
type column struct {
	codes []types.SubfieldCode
	index int // -1 when unbounded
}

// fragment is one comma-separated member of a query.
type fragment struct {
	tag  *matcher.TagMatcher
	occ  matcher.OccurrenceMatcher
	pred *matcher.SubfieldPredicate
	cols []column
}

// Query is a compiled multi-column selector.
type Query struct {
	expr      string
	fragments []*fragment
}

// ParseQuery compiles a query expression. Fragment predicates are
// compiled with the given matcher options.
func ParseQuery(expr string, opts matcher.Options) (*Query, error) {
	q := &Query{expr: expr}
	for _, part := range splitTopLevel(expr, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, &ParsePathError{Expr: expr, Err: fmt.Errorf("empty query fragment")}
		}
		frag, err := parseFragment(part, opts)
		if err != nil {
			return nil, &ParsePathError{Expr: expr, Err: err}
		}
		q.fragments = append(q.fragments, frag)
	}
	if len(q.fragments) == 0 {
		return nil, &ParsePathError{Expr: expr, Err: fmt.Errorf("empty query")}
	}
	return q, nil
}

func parseFragment(s string, opts matcher.Options) (*fragment, error) {
	open := indexTopLevel(s, '{')
	if open < 0 {
		// Dotted single-column fragment, same shape as a Path.
		syn, err := pathParser.ParseString("", s)
		if err != nil {
			return nil, err
		}
		p, err := compilePath(syn)
		if err != nil {
			return nil, err
		}
		return &fragment{
			tag:  p.tag,
			occ:  p.occ,
			cols: []column{{codes: p.codes, index: p.index}},
		}, nil
	}

	rest := strings.TrimSpace(s[open+1:])
	if !strings.HasSuffix(rest, "}") {
		return nil, fmt.Errorf("fragment %q: unterminated brace", s)
	}
	body := rest[:len(rest)-1]

	head, err := fragHeadParser.ParseString("", s[:open])
	if err != nil {
		return nil, err
	}
	tag, err := matcher.ParseTagMatcher(head.Tag)
	if err != nil {
		return nil, err
	}
	occ, err := matcher.ParseOccurrenceMatcher(head.Occ)
	if err != nil {
		return nil, err
	}
	frag := &fragment{tag: tag, occ: occ}

	if codesPart, predPart, found := matcher.CutPredicate(body); found {
		frag.pred, err = matcher.CompileSubfieldPredicate(strings.TrimSpace(predPart), opts)
		if err != nil {
			return nil, err
		}
		body = codesPart
	}

	for _, piece := range splitTopLevel(body, ',') {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			return nil, fmt.Errorf("fragment %q: empty column", s)
		}
		syn, err := colParser.ParseString("", piece)
		if err != nil {
			return nil, err
		}
		codes, err := compileCodes(syn.Codes)
		if err != nil {
			return nil, err
		}
		col := column{codes: codes, index: -1}
		if syn.Index != nil {
			col.index = *syn.Index
		}
		frag.cols = append(frag.cols, col)
	}
	if len(frag.cols) == 0 {
		return nil, fmt.Errorf("fragment %q: no columns", s)
	}
	return frag, nil
}

// String returns the original expression text.
func (q *Query) String() string {
	return q.expr
}

// Width returns the total number of output columns.
func (q *Query) Width() int {
	n := 0
	for _, frag := range q.fragments {
		n += len(frag.cols)
	}
	return n
}

// Rows evaluates the query against one record. Rows preserve field and
// document order. See the package comment for the zero-row boundary.
func (q *Query) Rows(rec types.Record) [][]string {
	groups := make([][][]string, len(q.fragments))
	matchedAny := false
	for i, frag := range q.fragments {
		groups[i] = frag.rows(rec)
		if groups[i] != nil {
			matchedAny = true
		}
	}
	if !matchedAny {
		return nil
	}

	// Fragments that matched nothing contribute one all-empty group so
	// that matched fragments' rows survive the product.
	for i, g := range groups {
		if g == nil {
			groups[i] = [][]string{make([]string, len(q.fragments[i].cols))}
		}
	}

	rows := [][]string{nil}
	for _, g := range groups {
		var next [][]string
		for _, left := range rows {
			for _, right := range g {
				row := make([]string, 0, len(left)+len(right))
				row = append(row, left...)
				row = append(row, right...)
				next = append(next, row)
			}
		}
		rows = next
	}
	return rows
}

// rows returns the fragment's value groups, nil when no field matched.
func (f *fragment) rows(rec types.Record) [][]string {
	var out [][]string
	for _, fld := range rec.Fields {
		if !f.tag.Match(fld.Tag) || !f.occ.Match(fld.Occurrence) {
			continue
		}
		if f.pred != nil && !f.pred.Match(fld) {
			continue
		}
		out = append(out, f.fieldRows(fld)...)
	}
	return out
}

// fieldRows builds the cartesian product of the per-column value lists
// within one field. A column with no matching subfield contributes a
// single empty string.
func (f *fragment) fieldRows(fld types.Field) [][]string {
	rows := [][]string{nil}
	for _, col := range f.cols {
		values := col.values(fld)
		if len(values) == 0 {
			values = []string{""}
		}
		var next [][]string
		for _, left := range rows {
			for _, v := range values {
				row := make([]string, 0, len(left)+1)
				row = append(row, left...)
				row = append(row, v)
				next = append(next, row)
			}
		}
		rows = next
	}
	return rows
}

func (c column) values(fld types.Field) []string {
	var out []string
	n := 0
	for _, sf := range fld.Subfields {
		ok := false
		for _, code := range c.codes {
			if sf.Code == code {
				ok = true
				break
			}
		}
		if !ok {
			continue
		}
		if c.index < 0 || n == c.index {
			out = append(out, string(sf.Value))
		}
		n++
	}
	return out
}

// splitTopLevel splits s on sep at nesting depth zero, outside quoted
// literals. Depth counts {, [ and ( equally.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\'':
			inQuote = !inQuote
		case inQuote:
		case c == '{' || c == '[' || c == '(':
			depth++
		case c == '}' || c == ']' || c == ')':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// indexTopLevel returns the index of the first unquoted occurrence of c
// at nesting depth zero, or -1.
func indexTopLevel(s string, c byte) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\'':
			inQuote = !inQuote
		case s[i] == c && !inQuote:
			return i
		}
	}
	return -1
}
