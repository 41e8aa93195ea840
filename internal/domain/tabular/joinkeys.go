package tabular

import (
	apperrors "github.com/schemaforge/backend/pkg/errors"
)

// Required join-key table columns, matched case-insensitively
const (
	ColumnLeftTable  = "left_table"
	ColumnLeftField  = "left_field"
	ColumnRightTable = "right_table"
	ColumnRightField = "right_field"
)

var joinKeyColumns = []string{ColumnLeftTable, ColumnLeftField, ColumnRightTable, ColumnRightField}

// JoinKeyRecord is a declared equality join condition between two schemas'
// fields. It is a pass-through hint: no validation that the referenced tables
// or fields exist in any schema document.
type JoinKeyRecord struct {
	LeftTable  string `json:"left_table"`
	LeftField  string `json:"left_field"`
	RightTable string `json:"right_table"`
	RightField string `json:"right_field"`
}

// ParseJoinKeys validates and normalizes a decoded table into an ordered
// sequence of JoinKeyRecords. Row order is preserved.
func ParseJoinKeys(t *Table) ([]JoinKeyRecord, error) {
	if missing := t.HasColumns(joinKeyColumns); len(missing) > 0 {
		return nil, apperrors.NewMissingColumnsError("", missing)
	}

	var records []JoinKeyRecord
	for _, row := range t.Rows {
		records = append(records, JoinKeyRecord{
			LeftTable:  row[ColumnLeftTable],
			LeftField:  row[ColumnLeftField],
			RightTable: row[ColumnRightTable],
			RightField: row[ColumnRightField],
		})
	}

	return records, nil
}
