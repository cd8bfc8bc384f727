package table

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outgrowdb/outgrow/pkg/status"
	"github.com/outgrowdb/outgrow/pkg/testutils"
)

func TestListTables(t *testing.T) {
	db, _ := testutils.CreateTestSource(t)
	testutils.RunSQL(t, db, `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`)
	testutils.RunSQL(t, db, `CREATE TABLE posts (id INTEGER PRIMARY KEY AUTOINCREMENT, body TEXT)`)
	testutils.RunSQL(t, db, `CREATE TABLE archive (id INTEGER)`)

	// AUTOINCREMENT creates the internal sqlite_sequence table, which
	// must never be reported.
	tables, err := ListTables(testContext(t), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"archive", "posts", "users"}, tables)
}

func TestListTablesEmptyDatabase(t *testing.T) {
	db, _ := testutils.CreateTestSource(t)
	tables, err := ListTables(testContext(t), db)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestSetInfo(t *testing.T) {
	db, _ := testutils.CreateTestSource(t)
	testutils.RunSQL(t, db, `CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		active BOOLEAN DEFAULT 1,
		created DATETIME DEFAULT CURRENT_TIMESTAMP,
		note
	)`)

	ti := NewTableInfo(db, "users")
	require.NoError(t, ti.SetInfo(testContext(t)))

	assert.Equal(t, `"users"`, ti.QuotedName)
	require.Len(t, ti.Columns, 5)
	assert.Equal(t, []string{"id", "name", "active", "created", "note"}, ti.ColumnNames())
	assert.Equal(t, []string{"id"}, ti.KeyColumns())

	id := ti.Columns[0]
	assert.Equal(t, "INTEGER", id.DeclaredType)
	assert.True(t, id.PrimaryKey)
	assert.Nil(t, id.Default)

	name := ti.Columns[1]
	assert.Equal(t, "TEXT", name.DeclaredType)
	assert.True(t, name.NotNull)
	assert.False(t, name.PrimaryKey)

	active := ti.Columns[2]
	assert.Equal(t, "BOOLEAN", active.DeclaredType)
	require.NotNil(t, active.Default)
	assert.Equal(t, "1", *active.Default)

	created := ti.Columns[3]
	assert.Equal(t, "DATETIME", created.DeclaredType)
	require.NotNil(t, created.Default)
	assert.Equal(t, "CURRENT_TIMESTAMP", *created.Default)

	// SQLite permits columns with no declared type at all.
	note := ti.Columns[4]
	assert.Equal(t, "", note.DeclaredType)
	assert.False(t, note.NotNull)
	assert.Nil(t, note.Default)
}

func TestSetInfoCompositeKey(t *testing.T) {
	db, _ := testutils.CreateTestSource(t)
	testutils.RunSQL(t, db, `CREATE TABLE follows (
		follower INTEGER,
		followee INTEGER,
		since DATETIME,
		PRIMARY KEY (follower, followee)
	)`)

	ti := NewTableInfo(db, "follows")
	require.NoError(t, ti.SetInfo(testContext(t)))
	assert.Equal(t, []string{"follower", "followee"}, ti.KeyColumns())
	assert.True(t, ti.Columns[0].PrimaryKey)
	assert.True(t, ti.Columns[1].PrimaryKey)
	assert.False(t, ti.Columns[2].PrimaryKey)
}

func TestSetInfoMissingTable(t *testing.T) {
	db, _ := testutils.CreateTestSource(t)
	ti := NewTableInfo(db, "nope")
	err := ti.SetInfo(testContext(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrSourceQuery))
	assert.ErrorContains(t, err, "does not exist")
}
