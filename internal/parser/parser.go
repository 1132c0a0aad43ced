// Package parser converts raw PICA+ line buffers into records.
//
// The byte grammar, with RS = 0x1E and US = 0x1F:
//
//	record     := field+ '\n'?
//	field      := tag occurrence? ' ' subfield* RS
//	tag        := [0-2][0-9][0-9][A-Z@]
//	occurrence := '/' digit{2,3}
//	subfield   := US alnum byte_run
//	byte_run   := any byte except US, RS
//
// Parse is total over arbitrary byte input: it never panics and never
// reads out of bounds, and any malformed buffer yields an
// InvalidRecordError carrying the raw offending bytes so callers can echo
// invalid lines verbatim.
//
// Parsed records are views: subfield values alias the input buffer. Use
// Record.Clone when a record must outlive its line.
package parser

import (
	"fmt"

	"github.com/bibkit/pica/internal/types"
)

// InvalidRecordError reports a buffer that does not match the record
// grammar. Raw holds the complete original line so callers can write an
// invalid-records report without re-reading input.
type InvalidRecordError struct {
	Offset int    // byte offset of the first offending byte
	Reason string // human-readable grammar violation
	Raw    []byte // the complete unparsed input line
}

// Error implements the error interface.
func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record at offset %d: %s", e.Offset, e.Reason)
}

// Parse decodes one line buffer into a Record.
// A single trailing newline is accepted and normalized away.
func Parse(buf []byte) (types.Record, error) {
	raw := buf
	if n := len(buf); n > 0 && buf[n-1] == '\n' {
		buf = buf[:n-1]
	}
	if len(buf) == 0 {
		return types.Record{}, &InvalidRecordError{Reason: "empty record", Raw: raw}
	}

	var fields []types.Field
	pos := 0
	for pos < len(buf) {
		field, next, err := parseField(buf, pos)
		if err != nil {
			err.Raw = raw
			return types.Record{}, err
		}
		fields = append(fields, field)
		pos = next
	}

	return types.Record{Fields: fields}, nil
}

// parseField decodes one field starting at pos and returns the position
// just past its terminating RS byte.
func parseField(buf []byte, pos int) (types.Field, int, *InvalidRecordError) {
	var field types.Field

	if len(buf)-pos < 4 {
		return field, 0, &InvalidRecordError{Offset: pos, Reason: "truncated tag"}
	}
	tag, err := types.ParseTag(buf[pos : pos+4])
	if err != nil {
		return field, 0, &InvalidRecordError{Offset: pos, Reason: err.Error()}
	}
	field.Tag = tag
	pos += 4

	if pos < len(buf) && buf[pos] == '/' {
		pos++
		start := pos
		for pos < len(buf) && buf[pos] >= '0' && buf[pos] <= '9' {
			pos++
		}
		occ, err := types.ParseOccurrence(buf[start:pos])
		if err != nil {
			return field, 0, &InvalidRecordError{Offset: start, Reason: err.Error()}
		}
		field.Occurrence = occ
	}

	if pos >= len(buf) || buf[pos] != ' ' {
		return field, 0, &InvalidRecordError{Offset: pos, Reason: "expected space after tag"}
	}
	pos++

	for pos < len(buf) && buf[pos] == types.US {
		pos++
		if pos >= len(buf) || !types.ValidSubfieldCode(buf[pos]) {
			return field, 0, &InvalidRecordError{Offset: pos, Reason: "invalid subfield code"}
		}
		code := types.SubfieldCode(buf[pos])
		pos++
		start := pos
		for pos < len(buf) && buf[pos] != types.US && buf[pos] != types.RS {
			pos++
		}
		field.Subfields = append(field.Subfields, types.Subfield{
			Code:  code,
			Value: buf[start:pos],
		})
	}

	if pos >= len(buf) || buf[pos] != types.RS {
		return field, 0, &InvalidRecordError{Offset: pos, Reason: "unterminated field"}
	}
	return field, pos + 1, nil
}
