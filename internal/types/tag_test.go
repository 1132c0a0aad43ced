package types

import (
	"errors"
	"testing"
)

func TestParseTag_Valid(t *testing.T) {
	tests := []struct {
		in    string
		level Level
	}{
		{"003@", LevelMain},
		{"012A", LevelMain},
		{"101@", LevelLocal},
		{"145Z", LevelLocal},
		{"203@", LevelCopy},
		{"299Z", LevelCopy},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tag, err := ParseTag([]byte(tt.in))
			if err != nil {
				t.Fatalf("ParseTag(%q) error = %v, want nil", tt.in, err)
			}
			if tag.String() != tt.in {
				t.Errorf("String() = %q, want %q", tag.String(), tt.in)
			}
			if tag.Level() != tt.level {
				t.Errorf("Level() = %v, want %v", tag.Level(), tt.level)
			}
		})
	}
}

func TestParseTag_Invalid(t *testing.T) {
	tests := []string{
		"",
		"003",
		"003@0",
		"303@",
		"00a@",
		"0A3@",
		"003a",
		"003 ",
		"\x0003@",
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			if _, err := ParseTag([]byte(in)); !errors.Is(err, ErrInvalidTag) {
				t.Errorf("ParseTag(%q) error = %v, want ErrInvalidTag", in, err)
			}
		})
	}
}

func TestMustTag_PanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("MustTag did not panic on invalid input")
		}
	}()
	MustTag("9zz!")
}

func TestParseOccurrence(t *testing.T) {
	for _, in := range []string{"00", "01", "999"} {
		if _, err := ParseOccurrence([]byte(in)); err != nil {
			t.Errorf("ParseOccurrence(%q) error = %v, want nil", in, err)
		}
	}
	for _, in := range []string{"", "1", "0001", "0a", "-1"} {
		if _, err := ParseOccurrence([]byte(in)); !errors.Is(err, ErrInvalidOccurrence) {
			t.Errorf("ParseOccurrence(%q) error = %v, want ErrInvalidOccurrence", in, err)
		}
	}
}

func TestNewSubfield(t *testing.T) {
	if _, err := NewSubfield('a', []byte("Lovelace")); err != nil {
		t.Fatalf("NewSubfield() error = %v, want nil", err)
	}
	if _, err := NewSubfield('a', nil); err != nil {
		t.Fatalf("NewSubfield() empty value error = %v, want nil", err)
	}
	if _, err := NewSubfield('!', []byte("x")); !errors.Is(err, ErrInvalidSubfieldCode) {
		t.Errorf("NewSubfield('!') error = %v, want ErrInvalidSubfieldCode", err)
	}
	if _, err := NewSubfield('a', []byte{'x', US}); !errors.Is(err, ErrInvalidSubfieldValue) {
		t.Errorf("NewSubfield(US in value) error = %v, want ErrInvalidSubfieldValue", err)
	}
	if _, err := NewSubfield('a', []byte{RS}); !errors.Is(err, ErrInvalidSubfieldValue) {
		t.Errorf("NewSubfield(RS in value) error = %v, want ErrInvalidSubfieldValue", err)
	}
}

func TestRecordClone_DoesNotAlias(t *testing.T) {
	buf := []byte("value")
	rec := Record{Fields: []Field{{
		Tag:       MustTag("012A"),
		Subfields: []Subfield{{Code: 'a', Value: buf}},
	}}}

	owned := rec.Clone()
	buf[0] = 'X'

	if got := string(owned.Fields[0].Subfields[0].Value); got != "value" {
		t.Errorf("cloned value = %q, want %q", got, "value")
	}
}
