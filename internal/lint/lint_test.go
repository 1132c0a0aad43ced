package lint

import (
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/bibkit/pica/internal/matcher"
	"github.com/bibkit/pica/internal/types"
)

func field(tag, occ string, pairs ...string) types.Field {
	f := types.Field{Tag: types.MustTag(tag)}
	if occ != "" {
		f.Occurrence = types.MustOccurrence(occ)
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		f.Subfields = append(f.Subfields, types.MustSubfield(pairs[i][0], pairs[i+1]))
	}
	return f
}

func record(fields ...types.Field) types.Record {
	return types.Record{Fields: fields}
}

func TestCheckDigit(t *testing.T) {
	tests := []struct {
		digits string
		want   byte
	}{
		{"000000021825009", '7'},
		{"000000012146438", 'X'},
		{"000000000000000", '1'},
	}
	for _, tt := range tests {
		got, err := CheckDigit(tt.digits)
		if err != nil {
			t.Fatalf("CheckDigit(%q): %v", tt.digits, err)
		}
		if got != tt.want {
			t.Errorf("CheckDigit(%q) = %c, want %c", tt.digits, got, tt.want)
		}
	}

	for _, digits := range []string{"", "12345", "00000002182500", "00000002182500a"} {
		if _, err := CheckDigit(digits); err == nil {
			t.Errorf("CheckDigit(%q): expected error", digits)
		}
	}
}

func TestValidIdentifier(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"0000000218250097", true},
		{"0000-0002-1825-0097", true},
		{"0000 0001 2146 438X", true},
		{"0000000218250090", false}, // trailing digit altered
		{"000000021825009", false},
		{"", false},
		{"000000021825009y", false},
	}
	for _, tt := range tests {
		if got := ValidIdentifier(tt.id); got != tt.want {
			t.Errorf("ValidIdentifier(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

const ruleSetDocument = `
rules:
  - name: has-ppn
    kind: filter
    severity: error
    filter: "003@.0?"
  - name: no-legacy-tag
    kind: filter
    severity: warning
    filter: "001A?"
    invert: true
  - name: orcid
    kind: checksum
    path: "028A.0"
  - name: entry-date
    kind: date
    severity: info
    path: "001A.0"
    layout: "20060102"
  - name: wellformed-name
    kind: unicode
    path: "028A.a"
    nfc: true
`

func TestLoadAndCheck(t *testing.T) {
	set, err := Load([]byte(ruleSetDocument), matcher.DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(set.Rules) != 5 {
		t.Fatalf("got %d rules, want 5", len(set.Rules))
	}

	clean := record(
		field("003@", "", "0", "123456789X"),
		field("028A", "", "0", "0000000218250097", "a", "Lovelace"),
	)
	if findings := set.Check(clean); len(findings) != 0 {
		t.Errorf("clean record: unexpected findings %v", findings)
	}

	dirty := record(
		field("001A", "", "0", "not-a-date"),
		field("028A", "", "0", "0000000218250090", "a", "Lovelace"),
	)
	findings := set.Check(dirty)
	if len(findings) != 4 {
		t.Fatalf("got %d findings, want 4: %v", len(findings), findings)
	}
	// Declaration order.
	wantRules := []string{"has-ppn", "no-legacy-tag", "orcid", "entry-date"}
	for i, f := range findings {
		if f.Rule != wantRules[i] {
			t.Errorf("finding %d: rule %q, want %q", i, f.Rule, wantRules[i])
		}
	}
	if findings[0].Severity != SeverityError {
		t.Errorf("has-ppn severity = %v, want error", findings[0].Severity)
	}
	if findings[1].Severity != SeverityWarning {
		t.Errorf("no-legacy-tag severity = %v, want warning", findings[1].Severity)
	}
	if !strings.Contains(findings[2].Message, "check digit") {
		t.Errorf("orcid message = %q", findings[2].Message)
	}
}

func TestLoad_UnknownKind(t *testing.T) {
	doc := `
rules:
  - name: mystery
    kind: regexx
    filter: "003@?"
`
	_, err := Load([]byte(doc), matcher.DefaultOptions())
	if err == nil || !strings.Contains(err.Error(), `unknown check kind "regexx"`) {
		t.Fatalf("Load = %v, want unknown kind error", err)
	}
}

func TestLoad_AggregatesErrors(t *testing.T) {
	doc := `
rules:
  - name: bad-filter
    kind: filter
    filter: "003@ &&"
  - name: bad-path
    kind: checksum
    path: "nope"
  - name: fine
    kind: filter
    filter: "003@?"
`
	_, err := Load([]byte(doc), matcher.DefaultOptions())
	if err == nil {
		t.Fatal("Load: expected error")
	}
	if errs := multierr.Errors(err); len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	for name, doc := range map[string]string{
		"empty":          ``,
		"no rules":       `rules: []`,
		"missing name":   "rules:\n  - kind: filter\n    filter: \"003@?\"",
		"missing kind":   "rules:\n  - name: x\n    filter: \"003@?\"",
		"missing filter": "rules:\n  - name: x\n    kind: filter",
		"missing path":   "rules:\n  - name: x\n    kind: date",
		"bad severity":   "rules:\n  - name: x\n    kind: filter\n    severity: fatal\n    filter: \"003@?\"",
		"not yaml":       `{{`,
	} {
		if _, err := Load([]byte(doc), matcher.DefaultOptions()); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestUnicodeCheck_NFC(t *testing.T) {
	set, err := Load([]byte("rules:\n  - name: nfc\n    kind: unicode\n    path: \"028A.a\"\n    nfc: true"), matcher.DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// U+0065 U+0301 is the decomposed form of é.
	rec := record(field("028A", "", "a", "André"))
	if findings := set.Check(rec); len(findings) != 1 {
		t.Fatalf("decomposed value: got %v, want one finding", findings)
	}
	rec = record(field("028A", "", "a", "André"))
	if findings := set.Check(rec); len(findings) != 0 {
		t.Errorf("composed value: unexpected findings %v", findings)
	}
}
