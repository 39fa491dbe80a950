package store

import (
	_ "embed"
	"strings"
)

//go:embed schema.sql
var ddlFile string

// DefaultDDLStatements returns the CREATE TABLE / INDEX statements from schema.sql
// for test and local setup. Comment lines are stripped before splitting on
// semicolons so that punctuation inside comments cannot produce bogus fragments.
func DefaultDDLStatements() []string {
	var sql strings.Builder
	for _, line := range strings.Split(ddlFile, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		sql.WriteString(line)
		sql.WriteString("\n")
	}

	parts := strings.Split(sql.String(), ";")
	var out []string
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
