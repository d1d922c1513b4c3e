package utils

import (
	. "certgen/internal/models"
)

type RowValidator struct {
	expectedFields int
}

func NewRowValidator() *RowValidator {
	return &RowValidator{expectedFields: len(RosterColumns)}
}

// Validate splits records into well-formed rows, in original order, and
// malformed rows keyed by their original row number.
func (v *RowValidator) Validate(records []Record) ([]RosterRow, []MalformedRow) {
	valid := make([]RosterRow, 0, len(records))
	var malformed []MalformedRow

	for _, record := range records {
		if len(record.Fields) != v.expectedFields {
			malformed = append(malformed, MalformedRow{
				RowNumber: record.RowNumber,
				Raw:       record.Fields,
			})
			continue
		}

		valid = append(valid, RosterRow{
			Name:  record.Fields[0],
			Event: record.Fields[1],
			Date:  record.Fields[2],
		})
	}

	return valid, malformed
}
