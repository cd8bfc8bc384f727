package applier

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/outgrowdb/outgrow/pkg/status"
	"github.com/outgrowdb/outgrow/pkg/table"
	"github.com/outgrowdb/outgrow/pkg/typeconv"
)

// MySQLApplier implements the Applier interface for MySQL targets.
// MySQL auto-commits DDL, so unlike PostgreSQL a failed run leaves the
// created tables behind even though the row writes roll back.
type MySQLApplier struct {
	target Target
	logger *slog.Logger
	mapper typeconv.Mapper
	trx    *sql.Tx
}

var _ Applier = (*MySQLApplier)(nil)

// NewMySQLApplier creates a new MySQL applier
func NewMySQLApplier(target Target, cfg *ApplierConfig) (*MySQLApplier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MySQLApplier{
		target: target,
		logger: cfg.Logger,
		mapper: typeconv.GetTypeMapper(typeconv.TargetTypeMySQL),
	}, nil
}

func (a *MySQLApplier) TypeMapper() typeconv.Mapper {
	return a.mapper
}

func (a *MySQLApplier) Begin(ctx context.Context) error {
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

// quoteMySQLIdent backtick-quotes an identifier. The driver exposes no
// quoting helper, so escaping is done here.
func quoteMySQLIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func buildMySQLCreateTable(ti *table.TableInfo, mapper typeconv.Mapper) string {
	keys := ti.KeyColumns()
	defs := make([]string, 0, len(ti.Columns)+1)
	for _, col := range ti.Columns {
		def := quoteMySQLIdent(col.Name) + " " + mapper.MapType(col.DeclaredType)
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
			quoted = append(quoted, quoteMySQLIdent(key))
		}
		defs = append(defs, "PRIMARY KEY ("+strings.Join(quoted, ", ")+")")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteMySQLIdent(ti.TableName), strings.Join(defs, ", "))
}

func (a *MySQLApplier) CreateTable(ctx context.Context, ti *table.TableInfo) error {
	if a.trx == nil {
		return fmt.Errorf("%w: create table %s: %w", status.ErrTargetSchema, ti.TableName, errNoTransaction)
	}
	stmt := buildMySQLCreateTable(ti, a.mapper)
	a.logger.Debug("creating target table", "table", ti.TableName, "ddl", stmt)
	if _, err := a.trx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%w: create table %s: %w", status.ErrTargetSchema, ti.TableName, err)
	}
	return nil
}

// ColumnTypes reads realized types from information_schema. COLUMN_TYPE
// is used instead of DATA_TYPE because it distinguishes tinyint(1),
// which is how BOOLEAN realizes on MySQL.
func (a *MySQLApplier) ColumnTypes(ctx context.Context, tableName string) (map[string]string, error) {
	if a.trx == nil {
		return nil, fmt.Errorf("%w: column types for %s: %w", status.ErrTargetSchema, tableName, errNoTransaction)
	}
	rows, err := a.trx.QueryContext(ctx,
		`SELECT COLUMN_NAME, COLUMN_TYPE FROM information_schema.columns
		 WHERE TABLE_NAME = ? AND TABLE_SCHEMA = DATABASE()`, tableName)
	if err != nil {
		return nil, fmt.Errorf("%w: column types for %s: %w", status.ErrTargetSchema, tableName, err)
	}
	defer rows.Close()

	types := make(map[string]string)
	for rows.Next() {
		var name, columnType string
		if err := rows.Scan(&name, &columnType); err != nil {
			return nil, fmt.Errorf("%w: column types for %s: %w", status.ErrTargetSchema, tableName, err)
		}
		types[name] = columnType
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: column types for %s: %w", status.ErrTargetSchema, tableName, err)
	}
	return types, nil
}

// buildMySQLInsert builds a multi-row INSERT with ? placeholders.
func buildMySQLInsert(ti *table.TableInfo, rowCount int) string {
	columns := ti.ColumnNames()
	quoted := make([]string, 0, len(columns))
	for _, col := range columns {
		quoted = append(quoted, quoteMySQLIdent(col))
	}
	group := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	groups := make([]string, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		groups = append(groups, group)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quoteMySQLIdent(ti.TableName),
		strings.Join(quoted, ", "),
		strings.Join(groups, ", "))
}

func (a *MySQLApplier) WriteBatch(ctx context.Context, ti *table.TableInfo, rows [][]any) (int64, error) {
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
	query := buildMySQLInsert(ti, len(rows))
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

func (a *MySQLApplier) Commit() error {
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

func (a *MySQLApplier) Rollback() error {
	if a.trx == nil {
		return nil
	}
	err := a.trx.Rollback()
	a.trx = nil
	return err
}

func (a *MySQLApplier) Close() error {
	if a.trx != nil {
		_ = a.trx.Rollback()
		a.trx = nil
	}
	if a.target.DB == nil {
		return nil
	}
	return a.target.DB.Close()
}
