package applier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outgrowdb/outgrow/pkg/table"
	"github.com/outgrowdb/outgrow/pkg/typeconv"
)

func strPtr(s string) *string {
	return &s
}

func usersTableInfo() *table.TableInfo {
	return &table.TableInfo{
		TableName: "users",
		Columns: []table.Column{
			{Name: "id", DeclaredType: "INTEGER", NotNull: true, PrimaryKey: true},
			{Name: "name", DeclaredType: "TEXT", NotNull: true},
			{Name: "active", DeclaredType: "BOOLEAN", Default: strPtr("1")},
			{Name: "created", DeclaredType: "DATETIME"},
		},
	}
}

func TestBuildPostgresCreateTable(t *testing.T) {
	tests := []struct {
		name string
		ti   *table.TableInfo
		want string
	}{
		{
			name: "single primary key",
			ti:   usersTableInfo(),
			want: `CREATE TABLE IF NOT EXISTS "users" ("id" INTEGER PRIMARY KEY, ` +
				`"name" TEXT NOT NULL, "active" BOOLEAN DEFAULT 1, "created" TIMESTAMP)`,
		},
		{
			name: "composite primary key moves to a table constraint",
			ti: &table.TableInfo{
				TableName: "follows",
				Columns: []table.Column{
					{Name: "follower", DeclaredType: "INTEGER", NotNull: true, PrimaryKey: true},
					{Name: "followee", DeclaredType: "INTEGER", NotNull: true, PrimaryKey: true},
					{Name: "since", DeclaredType: "DATETIME"},
				},
			},
			want: `CREATE TABLE IF NOT EXISTS "follows" ("follower" INTEGER, ` +
				`"followee" INTEGER, "since" TIMESTAMP, PRIMARY KEY ("follower", "followee"))`,
		},
		{
			name: "reserved words and mixed case are quoted",
			ti: &table.TableInfo{
				TableName: "order",
				Columns: []table.Column{
					{Name: "select", DeclaredType: "INTEGER", PrimaryKey: true},
					{Name: "CamelCase", DeclaredType: "TEXT"},
				},
			},
			want: `CREATE TABLE IF NOT EXISTS "order" ("select" INTEGER PRIMARY KEY, "CamelCase" TEXT)`,
		},
		{
			name: "typeless column falls back to TEXT",
			ti: &table.TableInfo{
				TableName: "notes",
				Columns: []table.Column{
					{Name: "id", DeclaredType: "INTEGER", PrimaryKey: true},
					{Name: "note", DeclaredType: ""},
				},
			},
			want: `CREATE TABLE IF NOT EXISTS "notes" ("id" INTEGER PRIMARY KEY, "note" TEXT)`,
		},
		{
			name: "no primary key at all",
			ti: &table.TableInfo{
				TableName: "log",
				Columns: []table.Column{
					{Name: "line", DeclaredType: "TEXT", NotNull: true},
				},
			},
			want: `CREATE TABLE IF NOT EXISTS "log" ("line" TEXT NOT NULL)`,
		},
	}

	mapper := typeconv.GetTypeMapper(typeconv.TargetTypePostgreSQL)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildPostgresCreateTable(tt.ti, mapper))
		})
	}
}

func TestBuildPostgresInsert(t *testing.T) {
	ti := &table.TableInfo{
		TableName: "users",
		Columns: []table.Column{
			{Name: "id"}, {Name: "name"},
		},
	}
	assert.Equal(t, `INSERT INTO "users" ("id", "name") VALUES ($1, $2)`,
		buildPostgresInsert(ti, 1))
	assert.Equal(t, `INSERT INTO "users" ("id", "name") VALUES ($1, $2), ($3, $4), ($5, $6)`,
		buildPostgresInsert(ti, 3))
}

func TestBuildMySQLCreateTable(t *testing.T) {
	mapper := typeconv.GetTypeMapper(typeconv.TargetTypeMySQL)
	got := buildMySQLCreateTable(usersTableInfo(), mapper)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS `users` (`id` INTEGER PRIMARY KEY, "+
		"`name` TEXT NOT NULL, `active` BOOLEAN DEFAULT 1, `created` DATETIME)", got)

	// BLOB and VARCHAR have MySQL-specific spellings.
	ti := &table.TableInfo{
		TableName: "files",
		Columns: []table.Column{
			{Name: "id", DeclaredType: "INTEGER", PrimaryKey: true},
			{Name: "name", DeclaredType: "VARCHAR(32)"},
			{Name: "data", DeclaredType: "BLOB"},
		},
	}
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS `files` (`id` INTEGER PRIMARY KEY, "+
		"`name` VARCHAR(255), `data` LONGBLOB)", buildMySQLCreateTable(ti, mapper))
}

func TestBuildMySQLInsert(t *testing.T) {
	ti := &table.TableInfo{
		TableName: "users",
		Columns: []table.Column{
			{Name: "id"}, {Name: "name"},
		},
	}
	assert.Equal(t, "INSERT INTO `users` (`id`, `name`) VALUES (?, ?), (?, ?)",
		buildMySQLInsert(ti, 2))
}

func TestBuildCreateTableDispatch(t *testing.T) {
	ti := usersTableInfo()
	assert.Contains(t, BuildCreateTable(ti, typeconv.TargetTypePostgreSQL), `"users"`)
	assert.Contains(t, BuildCreateTable(ti, typeconv.TargetTypeMySQL), "`users`")
}

func TestApplierConfigValidate(t *testing.T) {
	cfg := NewApplierDefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Logger = nil
	assert.ErrorContains(t, cfg.Validate(), "logger must be non-nil")
}

func TestNewApplierUnknownEngine(t *testing.T) {
	_, err := NewApplier(typeconv.TargetType("oracle"), Target{}, NewApplierDefaultConfig())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported target engine")
}

func TestMockDerivesRealizedTypes(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.Begin(testContext(t)))
	require.NoError(t, m.CreateTable(testContext(t), usersTableInfo()))

	types, err := m.ColumnTypes(testContext(t), "users")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"id":      "integer",
		"name":    "text",
		"active":  "boolean",
		"created": "timestamp without time zone",
	}, types)

	_, err = m.ColumnTypes(testContext(t), "never_created")
	assert.Error(t, err)
}
