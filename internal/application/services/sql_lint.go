package services

import (
	"fmt"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
)

// LintSQL runs an advisory sanity check over generated SQL: the response is
// expected to be a single SELECT statement. The parser speaks the MySQL
// dialect while the generated SQL is T-SQL, so a parse failure is not a
// finding - only text that parses and is demonstrably not a single SELECT
// produces warnings. Warnings never alter the returned SQL or fail the
// request.
func LintSQL(sql string) []string {
	// parser.Parser instances are not safe for concurrent use
	p := parser.New()
	stmts, _, err := p.Parse(sql, "", "")
	if err != nil {
		return nil
	}

	var warnings []string
	if len(stmts) != 1 {
		warnings = append(warnings, fmt.Sprintf("response contains %d statements, expected a single SELECT", len(stmts)))
	}
	for _, stmt := range stmts {
		switch stmt.(type) {
		case *ast.SelectStmt, *ast.SetOprStmt:
		default:
			warnings = append(warnings, fmt.Sprintf("response contains a non-SELECT statement (%T)", stmt))
		}
	}
	return warnings
}
