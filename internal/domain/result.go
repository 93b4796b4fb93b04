package domain

// RawRow maps upstream column names to their text-encoded values.
type RawRow map[string]string

// ResultSet is the tabular payload of one upstream query.
type ResultSet struct {
	Fields []string   `json:"fields" yaml:"fields"`
	Values [][]string `json:"rows" yaml:"rows"`
}

// Len returns the number of rows.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Values)
}

// Rows converts the result set into raw rows, preserving row order. Cells
// missing at the end of a short row are left out of that row.
func (r *ResultSet) Rows() []RawRow {
	if r == nil {
		return nil
	}
	rows := make([]RawRow, 0, len(r.Values))
	for _, values := range r.Values {
		row := make(RawRow, len(r.Fields))
		for i, field := range r.Fields {
			if i < len(values) {
				row[field] = values[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Filter returns a new result set holding only the rows for which keep
// returns true.
func (r *ResultSet) Filter(keep func(RawRow) bool) *ResultSet {
	out := &ResultSet{}
	if r == nil {
		return out
	}
	out.Fields = append(out.Fields, r.Fields...)
	for i, row := range r.Rows() {
		if keep(row) {
			out.Values = append(out.Values, r.Values[i])
		}
	}
	return out
}
