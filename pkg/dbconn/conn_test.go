package dbconn

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outgrowdb/outgrow/pkg/testutils"
)

func TestNewSQLite(t *testing.T) {
	db, path := testutils.CreateTestSource(t)
	testutils.RunSQL(t, db, `CREATE TABLE t1 (id INTEGER PRIMARY KEY, name TEXT)`)
	testutils.RunSQL(t, db, `INSERT INTO t1 VALUES (1, 'a')`)

	src, err := NewSQLite(path, NewDBConfig())
	require.NoError(t, err)
	defer func() {
		_ = src.Close()
	}()

	var count int
	require.NoError(t, src.QueryRowContext(testContext(t), "SELECT COUNT(*) FROM t1").Scan(&count))
	assert.Equal(t, 1, count)

	// The source is opened read-only: writes must be refused.
	_, err = src.ExecContext(testContext(t), "INSERT INTO t1 VALUES (2, 'b')")
	assert.Error(t, err)
}

func TestNewSQLiteMissingFile(t *testing.T) {
	_, err := NewSQLite("/nonexistent/path/source.db", NewDBConfig())
	assert.Error(t, err)
}

func TestPostgresConnStr(t *testing.T) {
	config := NewDBConfig()
	connStr := PostgresConnStr("db.example.com", 5432, "postgres", "hunter2", "appdb", "disable", config)
	assert.Equal(t, "host=db.example.com port=5432 dbname=appdb user=postgres sslmode=disable connect_timeout=5 password=hunter2", connStr)

	// An empty password is omitted entirely so trust auth still works.
	connStr = PostgresConnStr("127.0.0.1", 5433, "postgres", "", "postgres", "require", config)
	assert.Equal(t, "host=127.0.0.1 port=5433 dbname=postgres user=postgres sslmode=require connect_timeout=5", connStr)
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN("127.0.0.1", 3306, "root", "secret", "appdb", NewDBConfig())
	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3306", cfg.Addr)
	assert.Equal(t, "root", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "appdb", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "UTC", cfg.Loc.String())
}
