package selector

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

func TestPath_Values(t *testing.T) {
	rec := record(
		field("003@", "", "0", "123456789X"),
		field("047A", "03", "e", "one", "r", "two", "x", "skip"),
		field("047A", "04", "e", "other"),
		field("012A", "", "a", "first", "a", "second"),
	)

	tests := []struct {
		expr string
		want []string
	}{
		{"003@.0", []string{"123456789X"}},
		{"047A/03.[er]", []string{"one", "two"}},
		{"047A/*.e", []string{"one", "other"}},
		{"012A.a", []string{"first", "second"}},
		{"012A.a[0]", []string{"first"}},
		{"012A.a[1]", []string{"second"}},
		{"012A.a[5]", nil},
		{"013B.a", nil},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := ParsePath(tt.expr)
			if err != nil {
				t.Fatalf("ParsePath(%q): %v", tt.expr, err)
			}
			var got []string
			for _, v := range p.Values(rec) {
				got = append(got, string(v))
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Values(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParsePath_Invalid(t *testing.T) {
	for _, expr := range []string{
		"",
		"003@",
		"003@.",
		"12.a",
		"003@.aa",
		"003@.a[",
		"003@/.a",
	} {
		if _, err := ParsePath(expr); err == nil {
			t.Errorf("ParsePath(%q): expected error", expr)
		}
	}
}

func TestQuery_Rows(t *testing.T) {
	rec := record(
		field("003@", "", "0", "123456789X"),
		field("044H", "", "9", "040118827", "b", "GND"),
		field("044H", "", "9", "106408084", "b", "LCSH"),
		field("012A", "", "a", "x", "a", "y", "b", "p"),
	)

	tests := []struct {
		expr string
		want [][]string
	}{
		{
			"003@.0",
			[][]string{{"123456789X"}},
		},
		{
			"003@.0, 044H{ 9, b }",
			[][]string{
				{"123456789X", "040118827", "GND"},
				{"123456789X", "106408084", "LCSH"},
			},
		},
		{
			"003@.0, 044H{ 9, b | b == 'GND' }",
			[][]string{
				{"123456789X", "040118827", "GND"},
			},
		},
		{
			// Repeated code within one field multiplies into rows.
			"012A{ a, b }",
			[][]string{
				{"x", "p"},
				{"y", "p"},
			},
		},
		{
			// Missing code within a matched field yields an empty column.
			"044H{ 9, c }",
			[][]string{
				{"040118827", ""},
				{"106408084", ""},
			},
		},
		{
			// A missing fragment pads with empties when another matched.
			"003@.0, 013B.a",
			[][]string{{"123456789X", ""}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			q, err := ParseQuery(tt.expr, matcher.DefaultOptions())
			if err != nil {
				t.Fatalf("ParseQuery(%q): %v", tt.expr, err)
			}
			got := q.Rows(rec)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Rows(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestQuery_NoFragmentMatched(t *testing.T) {
	rec := record(field("003@", "", "0", "123456789X"))

	q, err := ParseQuery("013B.a,013B/00.c", matcher.DefaultOptions())
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if rows := q.Rows(rec); rows != nil {
		t.Errorf("Rows = %q, want zero rows", rows)
	}
}

func TestQuery_Width(t *testing.T) {
	q, err := ParseQuery("003@.0, 044H{ 9, b }", matcher.DefaultOptions())
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if got := q.Width(); got != 3 {
		t.Errorf("Width = %d, want 3", got)
	}
}

func TestParseQuery_Invalid(t *testing.T) {
	for _, expr := range []string{
		"",
		"003@.0,",
		"003@{ }",
		"003@{ 0",
		"003@{ 0, }",
		"003@{ 0 | }",
		"003@{ 0 | a ==== 'x' }",
	} {
		if _, err := ParseQuery(expr, matcher.DefaultOptions()); err == nil {
			t.Errorf("ParseQuery(%q): expected error", expr)
		}
	}
}
