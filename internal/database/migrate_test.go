package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatements(t *testing.T) {
	stmts := Statements()
	assert.Len(t, stmts, 8)
	for _, s := range stmts {
		assert.False(t, strings.HasPrefix(s, "--"), s)
		assert.NotContains(t, s, ";")
	}
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE IF NOT EXISTS users"))
	assert.Contains(t, stmts[len(stmts)-1], "purchase_audit_logs_no_delete")
}

func TestDSN(t *testing.T) {
	dsn := DSN("app", "s3cret", "db.local", "3306", "duoverkoop")
	assert.True(t, strings.HasPrefix(dsn, "app:s3cret@tcp(db.local:3306)/duoverkoop?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}
