package types

// Record is an ordered sequence of fields. Order is significant; multiple
// fields may share a tag and multiple subfields may share a code within
// one field.
//
// A freshly parsed Record is a view: its subfield values alias the buffer
// it was parsed from and are only valid while that buffer is. Clone copies
// everything out when a record must outlive its buffer, e.g. across a
// deduplication accumulator.
type Record struct {
	Fields []Field
}

// Clone returns a Record that owns all of its bytes.
func (r Record) Clone() Record {
	fields := make([]Field, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = f.Clone()
	}
	return Record{Fields: fields}
}

// AppendWire renders the record back into its wire representation,
// terminated by a newline. For any valid input buffer,
// AppendWire(nil) round-trips up to trailing-newline normalization.
func (r Record) AppendWire(dst []byte) []byte {
	for _, f := range r.Fields {
		dst = f.appendWire(dst)
	}
	return append(dst, '\n')
}

// First returns the first value of code c in the first field with tag t,
// or nil. Convenience accessor for well-known singletons such as the
// record identifier in 003@ $0.
func (r Record) First(t Tag, c SubfieldCode) []byte {
	for _, f := range r.Fields {
		if f.Tag == t {
			if v := f.First(c); v != nil {
				return v
			}
		}
	}
	return nil
}
