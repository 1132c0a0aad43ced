package matcher

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

/*
 * Matcher expression grammar.
 *
 * Precedence, low to high: ||, &&, !, atom. Atoms are parenthesized
 * groups, field cardinality checks (#TAG), and field scopes: either a
 * braced subfield expression (TAG{ ... }), a dotted shorthand
 * (TAG.code relation), or a bare existence test (TAG?).
 *
 * Tag patterns and occurrence patterns are lexed as single tokens and
 * compiled by ParseTagMatcher / ParseOccurrenceMatcher, which own the
 * per-position validation rules.
 */

var matcherLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `'[^']*'`},
	{Name: "TagPat", Pattern: `([0-2.]|\[[0-9-]+\])([0-9.]|\[[0-9-]+\])([0-9.]|\[[0-9-]+\])([A-Z@.]|\[[A-Z@-]+\])`},
	{Name: "Occ", Pattern: `/(\*|\d{2,3}(-\d{2,3})?)`},
	{Name: "RelOp", Pattern: `=~|!~|==|!=|=\^|=\$|=\*`},
	{Name: "BoolOp", Pattern: `&&|\|\|`},
	{Name: "CmpOp", Pattern: `>=|<=|>|<`},
	{Name: "DotDot", Pattern: `\.\.`},
	{Name: "Number", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[A-Za-z][A-Za-z0-9]*`},
	{Name: "Punct", Pattern: `[.#?!(){}\[\],]`},
})

type recordExpr struct {
	First *recordAnd   `parser:"@@"`
	Rest  []*recordAnd `parser:"( '||' @@ )*"`
}

type recordAnd struct {
	First *recordNot   `parser:"@@"`
	Rest  []*recordNot `parser:"( '&&' @@ )*"`
}

type recordNot struct {
	Not  bool        `parser:"@'!'?"`
	Atom *recordAtom `parser:"@@"`
}

type recordAtom struct {
	Group *recordExpr `parser:"'(' @@ ')'"`
	Card  *fieldCard  `parser:"| @@"`
	Scope *fieldScope `parser:"| @@"`
}

type fieldCard struct {
	Tag  string   `parser:"'#' @TagPat"`
	Occ  string   `parser:"@Occ?"`
	Pred *subExpr `parser:"( '{' @@ '}' )?"`
	Op   string   `parser:"@(RelOp|CmpOp)"`
	N    int      `parser:"@Number"`
}

type fieldScope struct {
	Tag    string   `parser:"@TagPat"`
	Occ    string   `parser:"@Occ?"`
	Braced *subExpr `parser:"( '{' @@ '}'"`
	Dotted *dotted  `parser:"| '.' @@"`
	Exists bool     `parser:"| @'?' )"`
}

type dotted struct {
	Codes  *codeList `parser:"@@"`
	Exists bool      `parser:"( @'?'"`
	Rel    *relTail  `parser:"| @@"`
	In     *inTail   `parser:"| @@ )"`
}

type subExpr struct {
	First *subAnd   `parser:"@@"`
	Rest  []*subAnd `parser:"( '||' @@ )*"`
}

type subAnd struct {
	First *subNot   `parser:"@@"`
	Rest  []*subNot `parser:"( '&&' @@ )*"`
}

type subNot struct {
	Not  bool     `parser:"@'!'?"`
	Atom *subAtom `parser:"@@"`
}

type subAtom struct {
	Group *subExpr `parser:"'(' @@ ')'"`
	Card  *subCard `parser:"| @@"`
	Pred  *subPred `parser:"| @@"`
}

type subCard struct {
	Codes *codeList `parser:"'#' @@"`
	Op    *string   `parser:"( @(RelOp|CmpOp)"`
	N     *int      `parser:"@Number"`
	Lo    *int      `parser:"| 'in' @Number"`
	Hi    *int      `parser:"'..' @Number )"`
}

type subPred struct {
	Quant  string    `parser:"@('ALL'|'ANY')?"`
	Codes  *codeList `parser:"@@"`
	Exists bool      `parser:"( @'?'"`
	Rel    *relTail  `parser:"| @@"`
	In     *inTail   `parser:"| @@ )"`
}

type relTail struct {
	Op    string `parser:"@RelOp"`
	Value string `parser:"@String"`
}

type inTail struct {
	Not    bool     `parser:"@'not'?"`
	Values []string `parser:"'in' '[' @String ( ',' @String )* ']'"`
}

type codeList struct {
	One  *string  `parser:"@(Ident|Number)"`
	List []string `parser:"| '[' @(Ident|Number)+ ']'"`
}

var recordExprParser = participle.MustBuild[recordExpr](
	participle.Lexer(matcherLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

var subExprParser = participle.MustBuild[subExpr](
	participle.Lexer(matcherLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)
