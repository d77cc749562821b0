package model

// Field is a canonical attribute that a source column can be mapped to.
type Field string

// Canonical fields resolved by the schema mapper.
const (
	FieldDate   Field = "date"
	FieldAge    Field = "age"
	FieldClosed Field = "closed"
	FieldCamera Field = "camera"
	FieldNotes  Field = "notes"
)

// Fields lists the canonical fields in resolution order.
func Fields() []Field {
	return []Field{FieldDate, FieldAge, FieldClosed, FieldCamera, FieldNotes}
}

// SchemaMap maps canonical fields to zero-based column indexes.
// A field missing from the map is absent from the source table.
// It is built once per source and treated as read-only afterwards.
type SchemaMap map[Field]int

// Lookup returns the column index for f and whether it was resolved.
func (s SchemaMap) Lookup(f Field) (int, bool) {
	idx, ok := s[f]
	return idx, ok
}

// MaxIndex returns the largest mapped column index, or -1 for an empty map.
func (s SchemaMap) MaxIndex() int {
	maxIdx := -1
	for _, idx := range s {
		if idx > maxIdx {
			maxIdx = idx
		}
	}
	return maxIdx
}
