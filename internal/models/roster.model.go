package models

import (
	"strconv"
	"strings"
)

// RosterColumns is the expected header shape, in order.
var RosterColumns = []string{"Name", "Event", "Date"}

// RosterRow is one well-formed data row. Date is opaque text.
type RosterRow struct {
	Name  string `json:"name"`
	Event string `json:"event"`
	Date  string `json:"date"`
}

// MalformedRow is a data row whose field count did not match the header.
// RowNumber counts CSV records with the header as row 1.
type MalformedRow struct {
	RowNumber int      `json:"rowNumber"`
	Raw       []string `json:"raw"`
}

// FormatRawRow renders raw fields the way skipped rows are logged.
func FormatRawRow(raw []string) string {
	quoted := make([]string, len(raw))
	for i, field := range raw {
		quoted[i] = strconv.Quote(field)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
