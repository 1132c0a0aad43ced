package format

import (
	"reflect"
	"testing"

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

func TestFormat_Render(t *testing.T) {
	tests := []struct {
		name string
		expr string
		rec  types.Record
		want []string
	}{
		{
			name: "conditional append",
			expr: "028A{ a <$> (', ' d) }",
			rec:  record(field("028A", "", "a", "Lovelace", "d", "Ada")),
			want: []string{"Lovelace, Ada"},
		},
		{
			name: "conditional suppressed without right side",
			expr: "028A{ a <$> (', ' d) }",
			rec:  record(field("028A", "", "a", "Lovelace")),
			want: []string{""},
		},
		{
			name: "conditional suppressed without left side",
			expr: "028A{ a <$> (', ' d) }",
			rec:  record(field("028A", "", "d", "Ada")),
			want: []string{""},
		},
		{
			name: "alternative picks first non-blank",
			expr: "021A{ a <*> d }",
			rec: record(
				field("021A", "", "d", "fallback"),
				field("021A", "", "a", "main", "d", "fallback"),
			),
			want: []string{"fallback", "main"},
		},
		{
			name: "adjacent literals vanish with empty refs",
			expr: "028A{ '[' c ']' }",
			rec: record(
				field("028A", "", "c", "III."),
				field("028A", "", "a", "noise"),
			),
			want: []string{"[III.]", ""},
		},
		{
			name: "literal-only body always renders",
			expr: "028A{ '-' }",
			rec:  record(field("028A", "", "a", "x")),
			want: []string{"-"},
		},
		{
			name: "repeat all values",
			expr: "045E{ e.. }",
			rec:  record(field("045E", "", "e", "004", "e", "620")),
			want: []string{"004620"},
		},
		{
			name: "repeat bounded",
			expr: "045E{ e..1 }",
			rec:  record(field("045E", "", "e", "004", "e", "620")),
			want: []string{"004"},
		},
		{
			name: "first value only without repeat",
			expr: "045E{ e }",
			rec:  record(field("045E", "", "e", "004", "e", "620")),
			want: []string{"004"},
		},
		{
			name: "occurrence bound",
			expr: "047A/03{ e }",
			rec: record(
				field("047A", "03", "e", "yes"),
				field("047A", "04", "e", "no"),
			),
			want: []string{"yes"},
		},
		{
			name: "predicate filters fields",
			expr: "044H{ 9 | b == 'GND' }",
			rec: record(
				field("044H", "", "9", "040118827", "b", "GND"),
				field("044H", "", "9", "106408084", "b", "LCSH"),
			),
			want: []string{"040118827"},
		},
		{
			name: "no matching field",
			expr: "028A{ a }",
			rec:  record(field("003@", "", "0", "1")),
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(tt.expr, matcher.DefaultOptions())
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.expr, err)
			}
			if got := f.Render(tt.rec); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Render = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat_IterStops(t *testing.T) {
	f, err := Parse("028A{ a }", matcher.DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rec := record(
		field("028A", "", "a", "one"),
		field("028A", "", "a", "two"),
	)
	var got []string
	for s := range f.Iter(rec) {
		got = append(got, s)
		break
	}
	if !reflect.DeepEqual(got, []string{"one"}) {
		t.Errorf("Iter with early break = %q", got)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, expr := range []string{
		"",
		"028A",
		"028A{",
		"028A{ }",
		"028A{ ab }",
		"028A{ a | }",
		"028A{ a <$> }",
		"12{ a }",
	} {
		if _, err := Parse(expr, matcher.DefaultOptions()); err == nil {
			t.Errorf("Parse(%q): expected error", expr)
		}
	}
}
