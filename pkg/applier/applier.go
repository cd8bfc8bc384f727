// Package applier contains the write path to the target database:
// schema synthesis, realized type lookups and batched inserts, all
// scoped to one run-wide transaction.
package applier

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/outgrowdb/outgrow/pkg/table"
	"github.com/outgrowdb/outgrow/pkg/typeconv"
)

// Target represents the target database an applier writes to.
type Target struct {
	DB *sql.DB
}

// Applier is the transactional write scope for one migration run.
// Begin is called once before the first table and Commit once after the
// last, so a failure anywhere leaves the target untouched on engines
// with transactional DDL. Appliers are not safe for concurrent use.
type Applier interface {
	// Begin opens the run-wide transaction.
	Begin(ctx context.Context) error

	// CreateTable synthesizes DDL for the table and executes it.
	CreateTable(ctx context.Context, ti *table.TableInfo) error

	// ColumnTypes returns the realized column types of a table as the
	// target reports them, keyed by column name. It reads through the
	// open transaction so tables created this run are visible.
	ColumnTypes(ctx context.Context, tableName string) (map[string]string, error)

	// WriteBatch inserts the rows in one multi-row statement and
	// returns the number of rows the target reports as affected.
	WriteBatch(ctx context.Context, ti *table.TableInfo, rows [][]any) (int64, error)

	// Commit commits the run-wide transaction.
	Commit() error

	// Rollback aborts the run-wide transaction. It is a no-op when no
	// transaction is open, so it is safe on every exit path.
	Rollback() error

	// Close releases the target connection.
	Close() error

	// TypeMapper returns the mapper used for DDL synthesis and value
	// conversion on this target.
	TypeMapper() typeconv.Mapper
}

type ApplierConfig struct {
	Logger *slog.Logger
}

// NewApplierDefaultConfig returns a default config for the applier.
func NewApplierDefaultConfig() *ApplierConfig {
	return &ApplierConfig{
		Logger: slog.Default(),
	}
}

// Validate checks the ApplierConfig for required fields.
func (cfg *ApplierConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger must be non-nil")
	}
	return nil
}

// NewApplier creates the applier for the given target engine.
func NewApplier(engine typeconv.TargetType, target Target, cfg *ApplierConfig) (Applier, error) {
	switch engine {
	case typeconv.TargetTypeMySQL:
		return NewMySQLApplier(target, cfg)
	case typeconv.TargetTypePostgreSQL:
		return NewPostgresApplier(target, cfg)
	default:
		return nil, errors.New("unsupported target engine: " + string(engine))
	}
}

// BuildCreateTable synthesizes the target DDL for a table without
// executing it. Used by the validate command to preview schemas.
func BuildCreateTable(ti *table.TableInfo, engine typeconv.TargetType) string {
	mapper := typeconv.GetTypeMapper(engine)
	if engine == typeconv.TargetTypeMySQL {
		return buildMySQLCreateTable(ti, mapper)
	}
	return buildPostgresCreateTable(ti, mapper)
}

var errNoTransaction = errors.New("no open transaction")
