package lint

import "fmt"

// CheckDigit computes the ISO 7064 MOD 11-2 check character over the
// first 15 digits of an ISNI or ORCID identifier. The accumulator folds
// left, doubling after each digit; a result of 10 renders as 'X'.
func CheckDigit(digits string) (byte, error) {
	if len(digits) != 15 {
		return 0, fmt.Errorf("check digit: want 15 digits, got %d", len(digits))
	}
	acc := 0
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("check digit: invalid digit %q at position %d", c, i)
		}
		acc = (acc + int(c-'0')) * 2
	}
	r := (12 - acc%11) % 11
	if r == 10 {
		return 'X', nil
	}
	return byte('0' + r), nil
}

// ValidIdentifier reports whether id is a well-formed 16-character
// ISNI/ORCID identifier with a correct trailing check character.
// Hyphens and spaces are ignored, so both the compact form and the
// grouped display form validate.
func ValidIdentifier(id string) bool {
	compact := make([]byte, 0, 16)
	for i := 0; i < len(id); i++ {
		switch c := id[i]; c {
		case '-', ' ':
		default:
			compact = append(compact, c)
		}
	}
	if len(compact) != 16 {
		return false
	}
	want, err := CheckDigit(string(compact[:15]))
	if err != nil {
		return false
	}
	return compact[15] == want
}
