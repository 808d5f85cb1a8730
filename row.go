package csvfile

// Row is one record. Fields holds the positional values; when the row was produced with
// column names it can also be addressed by name.
type Row struct {
	Fields []string

	names []string
}

// NamedRow pairs fields with column names. Both must have the same length; callers that
// cannot guarantee this should build a positional Row instead.
func NamedRow(names, fields []string) Row {
	return Row{Fields: fields, names: names}
}

// Len returns the number of fields.
func (r Row) Len() int { return len(r.Fields) }

// Named reports whether the row carries column names.
func (r Row) Named() bool { return r.names != nil }

// Names returns a copy of the column names, or nil for a positional row.
func (r Row) Names() []string {
	if r.names == nil {
		return nil
	}
	return append([]string(nil), r.names...)
}

// Get returns the value stored under name. With duplicate column names the last one wins,
// matching Map.
func (r Row) Get(name string) (string, bool) {
	for i := len(r.names) - 1; i >= 0; i-- {
		if r.names[i] == name && i < len(r.Fields) {
			return r.Fields[i], true
		}
	}
	return "", false
}

// Map returns the row as a name-to-value map, or nil for a positional row.
func (r Row) Map() map[string]string {
	if r.names == nil {
		return nil
	}
	m := make(map[string]string, len(r.names))
	for i, name := range r.names {
		if i < len(r.Fields) {
			m[name] = r.Fields[i]
		}
	}
	return m
}
