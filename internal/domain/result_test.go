package domain

import (
	"testing"
)

func TestResultSetRows(t *testing.T) {
	tests := []struct {
		name     string
		input    *ResultSet
		expected []RawRow
	}{
		{
			name:     "nil result set",
			input:    nil,
			expected: nil,
		},
		{
			name: "rows keep input order",
			input: &ResultSet{
				Fields: []string{"code", "code_name"},
				Values: [][]string{{"sh.600000", "浦发银行"}, {"sz.000001", "平安银行"}},
			},
			expected: []RawRow{
				{"code": "sh.600000", "code_name": "浦发银行"},
				{"code": "sz.000001", "code_name": "平安银行"},
			},
		},
		{
			name: "short row drops trailing cells",
			input: &ResultSet{
				Fields: []string{"date", "open", "close"},
				Values: [][]string{{"2023-06-01", "7.10"}},
			},
			expected: []RawRow{
				{"date": "2023-06-01", "open": "7.10"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.input.Rows()
			if len(result) != len(tt.expected) {
				t.Fatalf("Rows() returned %d rows, expected %d", len(result), len(tt.expected))
			}
			for i := range result {
				if len(result[i]) != len(tt.expected[i]) {
					t.Errorf("row %d = %v, expected %v", i, result[i], tt.expected[i])
				}
				for k, v := range tt.expected[i] {
					if result[i][k] != v {
						t.Errorf("row %d[%q] = %q, expected %q", i, k, result[i][k], v)
					}
				}
			}
		})
	}
}

func TestResultSetFilter(t *testing.T) {
	rs := &ResultSet{
		Fields: []string{"code", "type"},
		Values: [][]string{{"sh.000001", "2"}, {"sh.600000", "1"}, {"sz.399001", "2"}},
	}

	indexes := rs.Filter(func(row RawRow) bool { return row["type"] == "2" })

	if indexes.Len() != 2 {
		t.Fatalf("Filter() kept %d rows, expected 2", indexes.Len())
	}
	if indexes.Values[0][0] != "sh.000001" || indexes.Values[1][0] != "sz.399001" {
		t.Errorf("Filter() = %v, expected index rows in order", indexes.Values)
	}
	if rs.Len() != 3 {
		t.Errorf("Filter() mutated the source result set")
	}
}

func TestHistoryKDataPlusQuery(t *testing.T) {
	q := QueryHistoryKDataPlus("sh.600000", []string{"date", "open", "close"}, "2023-01-01", "", "d", "3")

	if q.Method != MethodHistoryKDataPlus {
		t.Errorf("Method = %q, expected %q", q.Method, MethodHistoryKDataPlus)
	}
	if got := q.Param("fields"); got != "date,open,close" {
		t.Errorf("fields = %q, expected %q", got, "date,open,close")
	}
	if got := q.Param("end_date"); got != "" {
		t.Errorf("end_date = %q, expected empty", got)
	}
	if got := q.Param("adjustflag"); got != "3" {
		t.Errorf("adjustflag = %q, expected %q", got, "3")
	}
}
