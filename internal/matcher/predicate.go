package matcher

// CutPredicate splits an expression body of the form "body | predicate"
// at the first single pipe outside quoted literals. The `||` operator is
// not a separator. Used by query fragments and format expressions, whose
// braces may carry a trailing field predicate.
func CutPredicate(s string) (body, pred string, found bool) {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			inQuote = !inQuote
		case '|':
			if inQuote {
				continue
			}
			if i+1 < len(s) && s[i+1] == '|' {
				i++
				continue
			}
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}
