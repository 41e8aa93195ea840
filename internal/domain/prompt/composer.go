package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/schemaforge/backend/internal/domain/tabular"
	apperrors "github.com/schemaforge/backend/pkg/errors"
)

// PolicyKind selects what the generated SQL should emit for target fields
// that cannot be mapped to any source field.
type PolicyKind string

const (
	PolicyNull    PolicyKind = "null"
	PolicyNoValue PolicyKind = "no_value"
	PolicyCustom  PolicyKind = "custom"

	// Fixed literal used by PolicyNoValue
	NoValueLiteral = "NO_VALUE"

	// MaxCustomValueLength bounds the user-supplied custom literal
	MaxCustomValueLength = 10
)

// UnmappedPolicy is the active unmapped-field rule for one composition.
// CustomValue is only consulted when Kind is PolicyCustom.
type UnmappedPolicy struct {
	Kind        PolicyKind
	CustomValue string
}

// ParsePolicy builds an UnmappedPolicy from form input
func ParsePolicy(kind, customValue string) (UnmappedPolicy, error) {
	switch PolicyKind(kind) {
	case PolicyNull:
		return UnmappedPolicy{Kind: PolicyNull}, nil
	case PolicyNoValue:
		return UnmappedPolicy{Kind: PolicyNoValue}, nil
	case PolicyCustom:
		// The limit counts characters, not bytes
		if utf8.RuneCountInString(customValue) > MaxCustomValueLength {
			return UnmappedPolicy{}, apperrors.NewValidationError("custom_value",
				fmt.Sprintf("custom value must be at most %d characters", MaxCustomValueLength))
		}
		return UnmappedPolicy{Kind: PolicyCustom, CustomValue: customValue}, nil
	case "":
		// Default mirrors the form's first radio option
		return UnmappedPolicy{Kind: PolicyNull}, nil
	}
	return UnmappedPolicy{}, apperrors.NewValidationError("unmapped_policy",
		fmt.Sprintf("unknown policy %q (want null, no_value, or custom)", kind))
}

// Instruction renders the policy as its natural-language sentence
func (p UnmappedPolicy) Instruction() string {
	switch p.Kind {
	case PolicyNoValue:
		return "If a target field cannot be mapped to any source field, output the string literal '" + NoValueLiteral + "' for that field in the SELECT statement."
	case PolicyCustom:
		return "If a target field cannot be mapped to any source field, output the string literal '" + p.CustomValue + "' for that field in the SELECT statement."
	default:
		return "If a target field cannot be mapped to any source field, output NULL for that field in the SELECT statement."
	}
}

const closingInstruction = `
Write ONLY the SQL SELECT statement (no explanation, no comments, no description) that transforms and joins the appropriate source tables to produce the target schema. Use field names and descriptions to determine which source table/column to use for each target field. Format the SQL as a valid Microsoft SQL Server (T-SQL) script, using proper indentation, line breaks, and JOINs as needed. Do not include any explanation or commentary—output only the SQL code.`

// Compose renders the full generation prompt. It is a pure function of its
// inputs: byte-identical inputs always produce a byte-identical prompt.
func Compose(sources []tabular.SchemaDocument, target tabular.SchemaDocument, joinKeys []tabular.JoinKeyRecord, policy UnmappedPolicy) string {
	var sb strings.Builder

	sb.WriteString("Given the following source schemas (from different systems):\n")
	for i, doc := range sources {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		writeSchema(&sb, doc, true)
	}

	sb.WriteString("\n\nAnd the following target schema:\n<target>\n")
	writeSchema(&sb, target, false)
	sb.WriteString("\n</target>\n")

	if len(joinKeys) > 0 {
		sb.WriteString("\nUse the following join keys when joining tables (these are the correct join relationships):\n")
		for i, jk := range joinKeys {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(jk.LeftTable)
			sb.WriteString(".")
			sb.WriteString(jk.LeftField)
			sb.WriteString(" = ")
			sb.WriteString(jk.RightTable)
			sb.WriteString(".")
			sb.WriteString(jk.RightField)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(policy.Instruction())
	sb.WriteString("\n")
	sb.WriteString(closingInstruction)

	return sb.String()
}

// writeSchema renders one schema document as one line per field in the form
// "table.column type -- description", preceded by a "[label]" line when the
// document carries a label and labels are wanted.
func writeSchema(sb *strings.Builder, doc tabular.SchemaDocument, withLabel bool) {
	if withLabel && doc.Label != "" {
		sb.WriteString("[")
		sb.WriteString(doc.Label)
		sb.WriteString("]\n")
	}
	for i, f := range doc.Fields {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(f.Table)
		sb.WriteString(".")
		sb.WriteString(f.Column)
		sb.WriteString(" ")
		sb.WriteString(f.Type)
		sb.WriteString(" -- ")
		sb.WriteString(f.Description)
	}
}
