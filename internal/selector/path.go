// Package selector addresses subfield values inside records.
//
// A Path addresses one or more subfield codes within fields selected by a
// tag/occurrence matcher, optionally bounded to a single index:
//
//	047A/03.[er]    codes e and r of occurrence 03 of field 047A
//	012A.a[0]       first a value of each matching 012A field
//
// A Query is a comma-separated list of fragments, each a path over one or
// more codes with an optional field predicate, evaluated to an ordered
// table of value rows suitable for tabular output.
package selector

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/bibkit/pica/internal/matcher"
	"github.com/bibkit/pica/internal/types"
)

// ParsePathError reports malformed path or query source text.
// Compile-time failure, fatal to the invoking command.
type ParsePathError struct {
	Expr string
	Err  error
}

// Error implements the error interface.
func (e *ParsePathError) Error() string {
	return fmt.Sprintf("invalid path expression %q: %v", e.Expr, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *ParsePathError) Unwrap() error {
	return e.Err
}

var pathLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "TagPat", Pattern: `([0-2.]|\[[0-9-]+\])([0-9.]|\[[0-9-]+\])([0-9.]|\[[0-9-]+\])([A-Z@.]|\[[A-Z@-]+\])`},
	{Name: "Occ", Pattern: `/(\*|\d{2,3}(-\d{2,3})?)`},
	{Name: "Number", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[A-Za-z][A-Za-z0-9]*`},
	{Name: "Punct", Pattern: `[.\[\],{}]`},
})

type pathSyntax struct {
	Tag   string    `parser:"@TagPat"`
	Occ   string    `parser:"@Occ?"`
	Codes *codeList `parser:"'.' @@"`
	Index *int      `parser:"( '[' @Number ']' )?"`
}

type codeList struct {
	One  *string  `parser:"@(Ident|Number)"`
	List []string `parser:"| '[' @(Ident|Number)+ ']'"`
}

var pathParser = participle.MustBuild[pathSyntax](
	participle.Lexer(pathLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Path addresses subfield values within matching fields.
type Path struct {
	expr  string
	tag   *matcher.TagMatcher
	occ   matcher.OccurrenceMatcher
	codes []types.SubfieldCode
	index int // -1 when unbounded
}

// ParsePath compiles a path expression.
func ParsePath(expr string) (*Path, error) {
	syn, err := pathParser.ParseString("", expr)
	if err != nil {
		return nil, &ParsePathError{Expr: expr, Err: err}
	}
	p, err := compilePath(syn)
	if err != nil {
		return nil, &ParsePathError{Expr: expr, Err: err}
	}
	p.expr = expr
	return p, nil
}

func compilePath(syn *pathSyntax) (*Path, error) {
	tag, err := matcher.ParseTagMatcher(syn.Tag)
	if err != nil {
		return nil, err
	}
	occ, err := matcher.ParseOccurrenceMatcher(syn.Occ)
	if err != nil {
		return nil, err
	}
	codes, err := compileCodes(syn.Codes)
	if err != nil {
		return nil, err
	}
	p := &Path{tag: tag, occ: occ, codes: codes, index: -1}
	if syn.Index != nil {
		p.index = *syn.Index
	}
	return p, nil
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

// String returns the original expression text.
func (p *Path) String() string {
	return p.expr
}

// Values returns the matching subfield values across all matching fields,
// flattened in document order. With an index bound, the n-th matching
// value of each field is selected (0-based); fields with fewer values
// contribute nothing.
func (p *Path) Values(rec types.Record) [][]byte {
	var out [][]byte
	for _, f := range rec.Fields {
		if !p.tag.Match(f.Tag) || !p.occ.Match(f.Occurrence) {
			continue
		}
		n := 0
		for _, sf := range f.Subfields {
			if !p.hasCode(sf.Code) {
				continue
			}
			if p.index < 0 || n == p.index {
				out = append(out, sf.Value)
			}
			n++
		}
	}
	return out
}

func (p *Path) hasCode(c types.SubfieldCode) bool {
	for _, code := range p.codes {
		if code == c {
			return true
		}
	}
	return false
}
