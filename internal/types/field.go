package types

// Field is a tag, an optional occurrence, and an ordered sequence of
// subfields. Subfield order is insertion order and is significant: it
// affects formatting and first/last semantics downstream.
type Field struct {
	Tag        Tag
	Occurrence Occurrence
	Subfields  []Subfield
}

// Contains reports whether the field has at least one subfield with code c.
func (f Field) Contains(c SubfieldCode) bool {
	for _, sf := range f.Subfields {
		if sf.Code == c {
			return true
		}
	}
	return false
}

// Values returns the values of all subfields with code c, in insertion
// order. The returned slices alias the field's subfield values.
func (f Field) Values(c SubfieldCode) [][]byte {
	var out [][]byte
	for _, sf := range f.Subfields {
		if sf.Code == c {
			out = append(out, sf.Value)
		}
	}
	return out
}

// First returns the value of the first subfield with code c, or nil.
func (f Field) First(c SubfieldCode) []byte {
	for _, sf := range f.Subfields {
		if sf.Code == c {
			return sf.Value
		}
	}
	return nil
}

// Clone returns a Field whose subfield values no longer alias the input
// buffer.
func (f Field) Clone() Field {
	sfs := make([]Subfield, len(f.Subfields))
	for i, sf := range f.Subfields {
		sfs[i] = sf.Clone()
	}
	return Field{Tag: f.Tag, Occurrence: f.Occurrence, Subfields: sfs}
}

// appendWire renders the field back into its wire representation.
func (f Field) appendWire(dst []byte) []byte {
	dst = append(dst, f.Tag[:]...)
	if !f.Occurrence.IsNone() {
		dst = append(dst, '/')
		dst = append(dst, f.Occurrence...)
	}
	dst = append(dst, ' ')
	for _, sf := range f.Subfields {
		dst = append(dst, US, byte(sf.Code))
		dst = append(dst, sf.Value...)
	}
	return append(dst, RS)
}
