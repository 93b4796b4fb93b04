// Package normalize maps upstream column names, units and encodings onto the
// bridge's stable output schema.
package normalize

import (
	"fmt"
	"sort"

	"github.com/igefined/quote-bridge/internal/domain"
)

// ConversionError reports a raw value that its converter rejected.
type ConversionError struct {
	Kind      string
	RawKey    string
	OutputKey string
	Raw       string
	Err       error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s.%s (%s) value %q: %v", e.Kind, e.RawKey, e.OutputKey, e.Raw, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Normalize converts rows with table, preserving row order. Columns unknown
// to the table are dropped and mapped columns missing from a row are left
// out of its record. extra is merged into every record last, overwriting on
// collision. The first conversion failure aborts with a *ConversionError.
func Normalize(table *Table, rows []domain.RawRow, extra map[string]any) ([]*Record, error) {
	out := make([]*Record, 0, len(rows))
	for _, row := range rows {
		rec, err := normalizeRow(table, row, extra)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// NormalizeFirst converts only the first row. An empty input yields an empty
// record carrying just extra.
func NormalizeFirst(table *Table, rows []domain.RawRow, extra map[string]any) (*Record, error) {
	if len(rows) == 0 {
		return normalizeRow(table, nil, extra)
	}
	return normalizeRow(table, rows[0], extra)
}

func normalizeRow(table *Table, row domain.RawRow, extra map[string]any) (*Record, error) {
	rec := NewRecord()
	for _, f := range table.fields {
		raw, ok := row[f.RawKey]
		if !ok {
			continue
		}
		v, err := f.Convert(raw)
		if err != nil {
			return nil, &ConversionError{Kind: table.kind, RawKey: f.RawKey, OutputKey: f.OutputKey, Raw: raw, Err: err}
		}
		rec.Set(f.OutputKey, v)
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rec.Set(k, extra[k])
	}
	return rec, nil
}
