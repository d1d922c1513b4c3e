package utils

import (
	"testing"

	. "certgen/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRowValidator_Validate(t *testing.T) {
	records := []Record{
		{RowNumber: 2, Fields: []string{"Alice Smith", "Workshop", "2024-01-01"}},
		{RowNumber: 3, Fields: []string{"B", "C", "D", "E"}},
		{RowNumber: 4, Fields: []string{"Bob"}},
		{RowNumber: 5, Fields: []string{"Carol", "Talk", "not a date"}},
	}

	valid, malformed := NewRowValidator().Validate(records)

	assert.Equal(t, []RosterRow{
		{Name: "Alice Smith", Event: "Workshop", Date: "2024-01-01"},
		{Name: "Carol", Event: "Talk", Date: "not a date"},
	}, valid)
	assert.Equal(t, []MalformedRow{
		{RowNumber: 3, Raw: []string{"B", "C", "D", "E"}},
		{RowNumber: 4, Raw: []string{"Bob"}},
	}, malformed)
}

func TestRowValidator_CountsAddUp(t *testing.T) {
	tests := []struct {
		name      string
		fields    [][]string
		valid     int
		malformed int
	}{
		{name: "empty", fields: nil, valid: 0, malformed: 0},
		{name: "all valid", fields: [][]string{{"a", "b", "c"}, {"d", "e", "f"}}, valid: 2, malformed: 0},
		{name: "all malformed", fields: [][]string{{"a"}, {"a", "b"}, {"a", "b", "c", "d"}}, valid: 0, malformed: 3},
		{name: "empty fields still count", fields: [][]string{{"", "", ""}}, valid: 1, malformed: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]Record, len(tt.fields))
			for i, f := range tt.fields {
				records[i] = Record{RowNumber: i + 2, Fields: f}
			}

			valid, malformed := NewRowValidator().Validate(records)

			assert.Len(t, valid, tt.valid)
			assert.Len(t, malformed, tt.malformed)
			assert.Equal(t, len(records), len(valid)+len(malformed))
		})
	}
}
