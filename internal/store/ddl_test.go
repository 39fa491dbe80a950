package store

import (
	"strings"
	"testing"
)

func TestDefaultDDLStatementsAreExecutable(t *testing.T) {
	stmts := DefaultDDLStatements()
	if len(stmts) == 0 {
		t.Fatal("no DDL statements parsed from schema.sql")
	}
	for i, stmt := range stmts {
		upper := strings.ToUpper(stmt)
		if !strings.HasPrefix(upper, "CREATE TABLE") && !strings.HasPrefix(upper, "CREATE INDEX") &&
			!strings.HasPrefix(upper, "CREATE UNIQUE INDEX") {
			t.Errorf("statement %d does not start with CREATE: %q", i, stmt)
		}
		if strings.Contains(stmt, "--") {
			t.Errorf("statement %d still contains a comment: %q", i, stmt)
		}
	}
}
