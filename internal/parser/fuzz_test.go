package parser

import (
	"bytes"
	"testing"
)

func FuzzParse(f *testing.F) {
	f.Add([]byte("003@ \x1f0123456789\x1e\n"))
	f.Add([]byte("028A \x1fdAda\x1faLovelace\x1e047A/03 \x1fex\x1e\n"))
	f.Add([]byte("012A/00 \x1e\n"))
	f.Add([]byte(""))
	f.Add([]byte("\x1e\x1f\x1e\x1f"))
	f.Add([]byte("912A \x1fa\x1e"))

	f.Fuzz(func(t *testing.T, data []byte) {
		rec, err := Parse(data)
		if err != nil {
			if _, ok := err.(*InvalidRecordError); !ok {
				t.Fatalf("Parse() error type = %T, want *InvalidRecordError", err)
			}
			return
		}

		// Accepted input must round-trip up to trailing-newline normalization.
		out := rec.AppendWire(nil)
		want := data
		if n := len(want); n == 0 || want[n-1] != '\n' {
			want = append(bytes.Clone(want), '\n')
		}
		if !bytes.Equal(out, want) {
			t.Fatalf("round-trip mismatch:\n in  %q\n out %q", want, out)
		}
	})
}
