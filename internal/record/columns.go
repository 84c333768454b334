package record

// Column is one name/value cell of a tabular row. Name is the normalised
// header used for lookups; Header keeps the source spelling when it differs.
type Column struct {
	Name   string `json:"name"`
	Header string `json:"header,omitempty"`
	Value  string `json:"value"`
}

// Label returns the header as the source wrote it.
func (c Column) Label() string {
	if c.Header != "" {
		return c.Header
	}
	return c.Name
}

// Columns is an ordered association list. It preserves the column order of
// the source export, which a map cannot.
type Columns []Column

// Get returns the value of the first column with the given name.
func (c Columns) Get(name string) (string, bool) {
	for _, col := range c {
		if col.Name == name {
			return col.Value, true
		}
	}
	return "", false
}

// Value returns the value stored under name, or "" when absent.
func (c Columns) Value(name string) string {
	v, _ := c.Get(name)
	return v
}

// First returns the first non-blank value among the given aliases, checked in
// order.
func (c Columns) First(aliases ...string) string {
	for _, a := range aliases {
		if v, ok := c.Get(a); ok && v != "" {
			return v
		}
	}
	return ""
}

// Set replaces the value of an existing column or appends a new one.
func (c Columns) Set(name, value string) Columns {
	for i := range c {
		if c[i].Name == name {
			c[i].Value = value
			return c
		}
	}
	return append(c, Column{Name: name, Value: value})
}

// Names returns the column names in order.
func (c Columns) Names() []string {
	names := make([]string, len(c))
	for i, col := range c {
		names[i] = col.Name
	}
	return names
}

// Clone returns an independent copy.
func (c Columns) Clone() Columns {
	if c == nil {
		return nil
	}
	out := make(Columns, len(c))
	copy(out, c)
	return out
}
