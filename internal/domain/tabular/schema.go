package tabular

import (
	apperrors "github.com/schemaforge/backend/pkg/errors"
)

// Required schema table columns, matched case-insensitively
const (
	ColumnTable       = "table"
	ColumnColumn      = "column"
	ColumnType        = "type"
	ColumnDescription = "description"
)

var schemaColumns = []string{ColumnTable, ColumnColumn, ColumnType, ColumnDescription}

// FieldRecord is one row of a schema table: a (table, column, type,
// description) tuple. Type and description are free text and may be blank.
type FieldRecord struct {
	Table       string `json:"table"`
	Column      string `json:"column"`
	Type        string `json:"type"`
	Description string `json:"description"`

	// Extra holds columns beyond the required four. They are retained but
	// never rendered downstream.
	Extra map[string]string `json:"-"`
}

// SchemaDocument is an ordered sequence of FieldRecords plus an optional
// source label used to distinguish multiple source schemas in the prompt.
type SchemaDocument struct {
	Label  string        `json:"label,omitempty"`
	Fields []FieldRecord `json:"fields"`
}

// ParseSchema validates and normalizes a decoded table into a SchemaDocument.
// Row contents are not trimmed, type-checked, or deduplicated; row order is
// preserved and blank cells survive as empty strings.
func ParseSchema(t *Table, label string) (*SchemaDocument, error) {
	if missing := t.HasColumns(schemaColumns); len(missing) > 0 {
		return nil, apperrors.NewMissingColumnsError(label, missing)
	}

	doc := &SchemaDocument{Label: label}
	for _, row := range t.Rows {
		record := FieldRecord{
			Table:       row[ColumnTable],
			Column:      row[ColumnColumn],
			Type:        row[ColumnType],
			Description: row[ColumnDescription],
		}
		for _, h := range t.Headers {
			switch h {
			case ColumnTable, ColumnColumn, ColumnType, ColumnDescription:
			default:
				if record.Extra == nil {
					record.Extra = make(map[string]string)
				}
				record.Extra[h] = row[h]
			}
		}
		doc.Fields = append(doc.Fields, record)
	}

	return doc, nil
}
