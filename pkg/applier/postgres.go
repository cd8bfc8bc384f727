package applier

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/outgrowdb/outgrow/pkg/status"
	"github.com/outgrowdb/outgrow/pkg/table"
	"github.com/outgrowdb/outgrow/pkg/typeconv"
)

// PostgresApplier implements the Applier interface for PostgreSQL targets
type PostgresApplier struct {
	target Target
	logger *slog.Logger
	mapper typeconv.Mapper
	trx    *sql.Tx
}

var _ Applier = (*PostgresApplier)(nil)

// NewPostgresApplier creates a new PostgreSQL applier
func NewPostgresApplier(target Target, cfg *ApplierConfig) (*PostgresApplier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PostgresApplier{
		target: target,
		logger: cfg.Logger,
		mapper: typeconv.GetTypeMapper(typeconv.TargetTypePostgreSQL),
	}, nil
}

func (a *PostgresApplier) TypeMapper() typeconv.Mapper {
	return a.mapper
}

func (a *PostgresApplier) Begin(ctx context.Context) error {
	if a.trx != nil {
		return fmt.Errorf("%w: transaction already open", status.ErrTargetWrite)
	}
	trx, err := a.target.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", status.ErrTargetWrite, err)
	}
	a.trx = trx
	return nil
}

// buildPostgresCreateTable synthesizes idempotent DDL for one table.
// Identifiers are quoted so reserved words and mixed case survive. A
// single-column key is declared inline; a composite key becomes a
// table-level constraint. Defaults are carried over verbatim as SQLite
// reports them.
func buildPostgresCreateTable(ti *table.TableInfo, mapper typeconv.Mapper) string {
	keys := ti.KeyColumns()
	defs := make([]string, 0, len(ti.Columns)+1)
	for _, col := range ti.Columns {
		def := pq.QuoteIdentifier(col.Name) + " " + mapper.MapType(col.DeclaredType)
		if col.PrimaryKey && len(keys) == 1 {
			def += " PRIMARY KEY"
		} else if col.NotNull && !col.PrimaryKey {
			def += " NOT NULL"
		}
		if col.Default != nil && !col.PrimaryKey {
			def += " DEFAULT " + *col.Default
		}
		defs = append(defs, def)
	}
	if len(keys) > 1 {
		quoted := make([]string, 0, len(keys))
		for _, key := range keys {
			quoted = append(quoted, pq.QuoteIdentifier(key))
		}
		defs = append(defs, "PRIMARY KEY ("+strings.Join(quoted, ", ")+")")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pq.QuoteIdentifier(ti.TableName), strings.Join(defs, ", "))
}

func (a *PostgresApplier) CreateTable(ctx context.Context, ti *table.TableInfo) error {
	if a.trx == nil {
		return fmt.Errorf("%w: create table %s: %w", status.ErrTargetSchema, ti.TableName, errNoTransaction)
	}
	stmt := buildPostgresCreateTable(ti, a.mapper)
	a.logger.Debug("creating target table", "table", ti.TableName, "ddl", stmt)
	if _, err := a.trx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%w: create table %s: %w", status.ErrTargetSchema, ti.TableName, err)
	}
	return nil
}

// ColumnTypes reads the realized types from information_schema through
// the open transaction. The current_schema() filter avoids picking up
// same-named tables from other schemas on a shared server.
func (a *PostgresApplier) ColumnTypes(ctx context.Context, tableName string) (map[string]string, error) {
	if a.trx == nil {
		return nil, fmt.Errorf("%w: column types for %s: %w", status.ErrTargetSchema, tableName, errNoTransaction)
	}
	rows, err := a.trx.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns
		 WHERE table_name = $1 AND table_schema = current_schema()`, tableName)
	if err != nil {
		return nil, fmt.Errorf("%w: column types for %s: %w", status.ErrTargetSchema, tableName, err)
	}
	defer rows.Close()

	types := make(map[string]string)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, fmt.Errorf("%w: column types for %s: %w", status.ErrTargetSchema, tableName, err)
		}
		types[name] = dataType
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: column types for %s: %w", status.ErrTargetSchema, tableName, err)
	}
	return types, nil
}

// buildPostgresInsert builds a multi-row INSERT with numbered
// placeholders: INSERT INTO "t" ("a", "b") VALUES ($1, $2), ($3, $4)
func buildPostgresInsert(ti *table.TableInfo, rowCount int) string {
	columns := ti.ColumnNames()
	quoted := make([]string, 0, len(columns))
	for _, col := range columns {
		quoted = append(quoted, pq.QuoteIdentifier(col))
	}
	groups := make([]string, 0, rowCount)
	n := 1
	for i := 0; i < rowCount; i++ {
		placeholders := make([]string, 0, len(columns))
		for range columns {
			placeholders = append(placeholders, fmt.Sprintf("$%d", n))
			n++
		}
		groups = append(groups, "("+strings.Join(placeholders, ", ")+")")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		pq.QuoteIdentifier(ti.TableName),
		strings.Join(quoted, ", "),
		strings.Join(groups, ", "))
}

func (a *PostgresApplier) WriteBatch(ctx context.Context, ti *table.TableInfo, rows [][]any) (int64, error) {
	if a.trx == nil {
		return 0, fmt.Errorf("%w: insert into %s: %w", status.ErrTargetWrite, ti.TableName, errNoTransaction)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(rows)*len(ti.Columns))
	for _, row := range rows {
		args = append(args, row...)
	}
	query := buildPostgresInsert(ti, len(rows))
	result, err := a.trx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: insert into %s: %w", status.ErrTargetWrite, ti.TableName, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return int64(len(rows)), nil //nolint:nilerr // not all drivers report affected rows
	}
	return affected, nil
}

func (a *PostgresApplier) Commit() error {
	if a.trx == nil {
		return fmt.Errorf("%w: commit: %w", status.ErrTargetWrite, errNoTransaction)
	}
	err := a.trx.Commit()
	a.trx = nil
	if err != nil {
		return fmt.Errorf("%w: commit: %w", status.ErrTargetWrite, err)
	}
	return nil
}

func (a *PostgresApplier) Rollback() error {
	if a.trx == nil {
		return nil
	}
	err := a.trx.Rollback()
	a.trx = nil
	return err
}

func (a *PostgresApplier) Close() error {
	if a.trx != nil {
		_ = a.trx.Rollback()
		a.trx = nil
	}
	if a.target.DB == nil {
		return nil
	}
	return a.target.DB.Close()
}
