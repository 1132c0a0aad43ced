// Package format renders records through display templates.
//
// A template addresses fields by tag and occurrence and composes subfield
// references, string literals and groups into one rendered string per
// matching field:
//
//	028A{ a <$> (', ' d) }
//
// The <$> operator joins both sides when both render non-blank and
// suppresses the whole expression otherwise; <*> picks the first
// non-blank side. Literals adjacent to references vanish when every reference in
// the chain renders empty, so decoration never outlives its value.
package format

import (
	"fmt"
	"iter"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/bibkit/pica/internal/matcher"
	"github.com/bibkit/pica/internal/types"
)

// ParseFormatError reports malformed template source text.
type ParseFormatError struct {
	Expr string
	Err  error
}

// Error implements the error interface.
func (e *ParseFormatError) Error() string {
	return fmt.Sprintf("invalid format expression %q: %v", e.Expr, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *ParseFormatError) Unwrap() error {
	return e.Err
}

var formatLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `'[^']*'`},
	{Name: "CondOp", Pattern: `<\$>`},
	{Name: "AltOp", Pattern: `<\*>`},
	{Name: "DotDot", Pattern: `\.\.`},
	{Name: "Number", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[A-Za-z][A-Za-z0-9]*`},
	{Name: "Punct", Pattern: `[()]`},
})

// Operator precedence, loosest first: <*>, <$>, adjacency.
type fAlt struct {
	Left *fCond   `parser:"@@"`
	Rest []*fCond `parser:"( AltOp @@ )*"`
}

type fCond struct {
	Left *fCat   `parser:"@@"`
	Rest []*fCat `parser:"( CondOp @@ )*"`
}

type fCat struct {
	Items []*fItem `parser:"@@+"`
}

type fItem struct {
	Lit   *string `parser:"@String"`
	Group *fAlt   `parser:"| '(' @@ ')'"`
	Ref   *fRef   `parser:"| @@"`
}

type fRef struct {
	Code string `parser:"@(Ident|Number)"`
	Dots bool   `parser:"( @DotDot"`
	N    *int   `parser:"  @Number? )?"`
}

var formatParser = participle.MustBuild[fAlt](
	participle.Lexer(formatLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// node renders one template expression against a single field. hasRef
// reports whether the subtree contains a subfield reference; literal-only
// subtrees always render.
type node interface {
	render(f types.Field) string
	hasRef() bool
}

type litNode struct {
	text string
}

func (n *litNode) render(types.Field) string { return n.text }
func (n *litNode) hasRef() bool              { return false }

// refNode renders subfield values of one code. Without a repeat bound
// only the first value renders; with `..` all values concatenate, with
// `..n` at most n of them.
type refNode struct {
	code types.SubfieldCode
	max  int // 0 = first only, -1 = all
}

func (n *refNode) render(f types.Field) string {
	var b strings.Builder
	taken := 0
	for _, sf := range f.Subfields {
		if sf.Code != n.code {
			continue
		}
		b.Write(sf.Value)
		taken++
		if n.max == 0 || (n.max > 0 && taken >= n.max) {
			break
		}
	}
	return b.String()
}

func (n *refNode) hasRef() bool { return true }

// catNode concatenates adjacent items. Decoration rule: when the chain
// contains reference-bearing items and every one of them renders empty,
// the whole chain renders empty.
type catNode struct {
	items []node
}

func (n *catNode) render(f types.Field) string {
	parts := make([]string, len(n.items))
	sawRef := false
	sawValue := false
	for i, item := range n.items {
		parts[i] = item.render(f)
		if item.hasRef() {
			sawRef = true
			if parts[i] != "" {
				sawValue = true
			}
		}
	}
	if sawRef && !sawValue {
		return ""
	}
	return strings.Join(parts, "")
}

func (n *catNode) hasRef() bool {
	for _, item := range n.items {
		if item.hasRef() {
			return true
		}
	}
	return false
}

type condNode struct {
	left, right node
}

func (n *condNode) render(f types.Field) string {
	l := n.left.render(f)
	if strings.TrimSpace(l) == "" {
		return ""
	}
	r := n.right.render(f)
	if strings.TrimSpace(r) == "" {
		return ""
	}
	return l + r
}

func (n *condNode) hasRef() bool { return n.left.hasRef() || n.right.hasRef() }

type altNode struct {
	left, right node
}

func (n *altNode) render(f types.Field) string {
	if l := n.left.render(f); strings.TrimSpace(l) != "" {
		return l
	}
	return n.right.render(f)
}

func (n *altNode) hasRef() bool { return n.left.hasRef() || n.right.hasRef() }

// Format is a compiled display template.
type Format struct {
	expr string
	tag  *matcher.TagMatcher
	occ  matcher.OccurrenceMatcher
	pred *matcher.SubfieldPredicate
	body node
}

// Parse compiles a template expression. The predicate after `|`, when
// present, is compiled with the given matcher options.
func Parse(expr string, opts matcher.Options) (*Format, error) {
	f, err := parseFormat(expr, opts)
	if err != nil {
		return nil, &ParseFormatError{Expr: expr, Err: err}
	}
	f.expr = expr
	return f, nil
}

func parseFormat(expr string, opts matcher.Options) (*Format, error) {
	open := strings.IndexByte(expr, '{')
	if open < 0 {
		return nil, fmt.Errorf("missing template body")
	}
	rest := strings.TrimSpace(expr[open+1:])
	if !strings.HasSuffix(rest, "}") {
		return nil, fmt.Errorf("unterminated template body")
	}
	body := rest[:len(rest)-1]

	f := &Format{}
	head := strings.TrimSpace(expr[:open])
	tagPart, occPart := head, ""
	if slash := strings.IndexByte(head, '/'); slash >= 0 {
		tagPart, occPart = head[:slash], head[slash:]
	}
	var err error
	if f.tag, err = matcher.ParseTagMatcher(tagPart); err != nil {
		return nil, err
	}
	if f.occ, err = matcher.ParseOccurrenceMatcher(occPart); err != nil {
		return nil, err
	}

	if tmpl, pred, found := matcher.CutPredicate(body); found {
		if f.pred, err = matcher.CompileSubfieldPredicate(strings.TrimSpace(pred), opts); err != nil {
			return nil, err
		}
		body = tmpl
	}

	syn, err := formatParser.ParseString("", body)
	if err != nil {
		return nil, err
	}
	if f.body, err = compileAlt(syn); err != nil {
		return nil, err
	}
	return f, nil
}

func compileAlt(syn *fAlt) (node, error) {
	n, err := compileCond(syn.Left)
	if err != nil {
		return nil, err
	}
	for _, right := range syn.Rest {
		r, err := compileCond(right)
		if err != nil {
			return nil, err
		}
		n = &altNode{left: n, right: r}
	}
	return n, nil
}

func compileCond(syn *fCond) (node, error) {
	n, err := compileCat(syn.Left)
	if err != nil {
		return nil, err
	}
	for _, right := range syn.Rest {
		r, err := compileCat(right)
		if err != nil {
			return nil, err
		}
		n = &condNode{left: n, right: r}
	}
	return n, nil
}

func compileCat(syn *fCat) (node, error) {
	if len(syn.Items) == 1 {
		return compileItem(syn.Items[0])
	}
	n := &catNode{items: make([]node, 0, len(syn.Items))}
	for _, item := range syn.Items {
		c, err := compileItem(item)
		if err != nil {
			return nil, err
		}
		n.items = append(n.items, c)
	}
	return n, nil
}

func compileItem(syn *fItem) (node, error) {
	switch {
	case syn.Lit != nil:
		text := *syn.Lit
		return &litNode{text: text[1 : len(text)-1]}, nil
	case syn.Group != nil:
		return compileAlt(syn.Group)
	default:
		return compileRef(syn.Ref)
	}
}

func compileRef(syn *fRef) (node, error) {
	if len(syn.Code) != 1 {
		return nil, fmt.Errorf("subfield code %q: must be a single character", syn.Code)
	}
	code, err := types.ParseSubfieldCode(syn.Code[0])
	if err != nil {
		return nil, err
	}
	n := &refNode{code: code}
	if syn.Dots {
		n.max = -1
		if syn.N != nil {
			n.max = *syn.N
		}
	}
	return n, nil
}

// String returns the original expression text.
func (f *Format) String() string {
	return f.expr
}

// Iter yields one rendered string per matching field, in document order.
// Fields rejected by the predicate are skipped; a matching field whose
// template renders empty still yields its empty string.
func (f *Format) Iter(rec types.Record) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, fld := range rec.Fields {
			if !f.tag.Match(fld.Tag) || !f.occ.Match(fld.Occurrence) {
				continue
			}
			if f.pred != nil && !f.pred.Match(fld) {
				continue
			}
			if !yield(f.body.render(fld)) {
				return
			}
		}
	}
}

// Render collects Iter into a slice.
func (f *Format) Render(rec types.Record) []string {
	var out []string
	for s := range f.Iter(rec) {
		out = append(out, s)
	}
	return out
}
