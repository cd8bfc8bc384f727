// Package table contains the schema model for source tables.
package table

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/outgrowdb/outgrow/pkg/status"
)

// Column describes a single column of a source table.
type Column struct {
	Name         string
	DeclaredType string  // the type string recorded in the source schema, possibly empty
	NotNull      bool
	Default      *string // literal default expression, nil when the column has none
	PrimaryKey   bool
}

// TableInfo stores the column layout of one source table. Columns keep
// their physical order so row tuples, synthesized DDL and insert column
// lists all stay aligned.
type TableInfo struct {
	db         *sql.DB
	TableName  string
	QuotedName string
	Columns    []Column
}

func NewTableInfo(db *sql.DB, tableName string) *TableInfo {
	return &TableInfo{
		db:         db,
		TableName:  tableName,
		QuotedName: QuoteIdentifier(tableName),
	}
}

// QuoteIdentifier returns the double-quoted form of an identifier for
// use in source queries.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SetInfo reads the column metadata from the source database.
// A table with zero columns does not exist, which SQLite reports as an
// empty pragma result rather than an error.
func (t *TableInfo) SetInfo(ctx context.Context) error {
	rows, err := t.db.QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`,
		t.TableName)
	if err != nil {
		return fmt.Errorf("%w: describe table %s: %w", status.ErrSourceQuery, t.TableName, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			col     Column
			notNull int
			pk      int
			dflt    sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.DeclaredType, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("%w: describe table %s: %w", status.ErrSourceQuery, t.TableName, err)
		}
		col.NotNull = notNull != 0
		col.PrimaryKey = pk > 0 // pk is the 1-based position within the primary key
		if dflt.Valid {
			col.Default = &dflt.String
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: describe table %s: %w", status.ErrSourceQuery, t.TableName, err)
	}
	if len(columns) == 0 {
		return fmt.Errorf("%w: table %s does not exist", status.ErrSourceQuery, t.TableName)
	}
	t.Columns = columns
	return nil
}

// ColumnNames returns the column names in physical order.
func (t *TableInfo) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		names = append(names, col.Name)
	}
	return names
}

// KeyColumns returns the primary key column names in physical order.
func (t *TableInfo) KeyColumns() []string {
	var keys []string
	for _, col := range t.Columns {
		if col.PrimaryKey {
			keys = append(keys, col.Name)
		}
	}
	return keys
}

// ListTables returns the names of the user tables in the source
// database, sorted by name. Internal sqlite_* tables are excluded.
func ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: list tables: %w", status.ErrSourceQuery, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: list tables: %w", status.ErrSourceQuery, err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list tables: %w", status.ErrSourceQuery, err)
	}
	return tables, nil
}
