package migration

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/outgrowdb/outgrow/pkg/applier"
	"github.com/outgrowdb/outgrow/pkg/copier"
	"github.com/outgrowdb/outgrow/pkg/dbconn"
	"github.com/outgrowdb/outgrow/pkg/metrics"
	"github.com/outgrowdb/outgrow/pkg/status"
	"github.com/outgrowdb/outgrow/pkg/table"
	"github.com/outgrowdb/outgrow/pkg/typeconv"
	"github.com/outgrowdb/outgrow/pkg/utils"
)

// Runner drives one migration run: it confirms, connects, walks the
// source tables in order and moves each one inside a single target
// transaction. The mutex guards the fields the status watcher reads
// while a table is transferring.
type Runner struct {
	sync.Mutex

	migration *Migration
	runID     string

	source  *sql.DB
	applier applier.Applier
	tunnel  *dbconn.Tunnel

	status status.State // must use atomic helpers to change.

	copier       copier.Copier // copier for the table currently transferring, nil between tables
	currentTable string

	// Track some key statistics.
	startTime      time.Time
	tablesMigrated int
	tablesSkipped  int
	rowsMigrated   uint64

	// Attached logger
	logger     *slog.Logger
	cancelFunc context.CancelFunc

	// MetricsSink
	metricsSink metrics.Sink
}

var _ status.Task = (*Runner)(nil)

func NewRunner(m *Migration) (*Runner, error) {
	if err := m.normalizeOptions(); err != nil {
		return nil, err
	}
	return &Runner{
		migration:   m,
		runID:       uuid.NewString(),
		logger:      slog.Default(),
		metricsSink: &metrics.NoopSink{},
	}, nil
}

func (r *Runner) SetMetricsSink(sink metrics.Sink) {
	r.metricsSink = sink
}

func (r *Runner) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

// SetSource substitutes an already-open source handle. Used by the
// test-suite.
func (r *Runner) SetSource(db *sql.DB) {
	r.source = db
}

// SetApplier substitutes the target applier. Used by the test-suite.
func (r *Runner) SetApplier(a applier.Applier) {
	r.applier = a
}

func (r *Runner) Run(ctx context.Context) error {
	ctx, r.cancelFunc = context.WithCancel(ctx)
	defer r.cancelFunc()
	r.startTime = time.Now()
	r.logger.Info("Starting migration",
		"run-id", r.runID,
		"source", r.migration.Source,
		"target-host", r.migration.TargetHost,
		"target-engine", r.migration.TargetEngine,
		"batch-size", r.migration.BatchSize,
	)

	// Nothing connects to either database until the run is confirmed,
	// so declining leaves both sides untouched.
	if !r.migration.Yes {
		confirmed, err := r.confirm()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Migration cancelled.")
			return nil
		}
	}

	if err := r.connect(ctx); err != nil {
		return err
	}

	r.status.Set(status.Introspecting)
	status.WatchTask(ctx, r, r.logger)

	tables, err := table.ListTables(ctx, r.source)
	if err != nil {
		return err
	}
	tables = r.filterTables(tables)
	if len(tables) == 0 {
		r.logger.Warn("no tables to migrate")
	}

	// A single transaction spans the whole run. On engines with
	// transactional DDL a failure anywhere rolls back every table.
	if err := r.applier.Begin(ctx); err != nil {
		return err
	}
	for _, name := range tables {
		if err := r.migrateTable(ctx, name); err != nil {
			r.status.Set(status.Failed)
			r.logger.Error("migration failed, rolling back", "table", name, "error", err)
			if rbErr := r.applier.Rollback(); rbErr != nil {
				r.logger.Error("rollback failed", "error", rbErr)
			}
			return err
		}
	}
	if err := r.applier.Commit(); err != nil {
		r.status.Set(status.Failed)
		return err
	}
	r.status.Set(status.Done)
	r.logger.Info("migration complete",
		"tables-migrated", r.tablesMigrated,
		"tables-skipped", r.tablesSkipped,
		"rows-migrated", r.rowsMigrated,
		"total-time", time.Since(r.startTime).Round(time.Second),
	)
	return nil
}

// confirm prints what is about to happen and asks for a yes/no answer
// on the prompt reader. Anything other than yes or y declines.
func (r *Runner) confirm() (bool, error) {
	input := r.migration.promptInput
	if input == nil {
		input = os.Stdin
	}
	fmt.Printf("Migrating %s to %s://%s/%s\n",
		r.migration.Source,
		r.migration.TargetEngine,
		r.migration.TargetHost,
		r.migration.TargetDatabase,
	)
	fmt.Print("Continue with migration? (yes/no): ")
	answer, err := bufio.NewReader(input).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("%w: read confirmation: %w", status.ErrConfiguration, err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y", nil
}

// connect opens the source database and the target applier. Handles
// pre-wired by the test-suite are left alone.
func (r *Runner) connect(ctx context.Context) error {
	dbConfig := dbconn.NewDBConfig()
	if r.source == nil {
		source, err := dbconn.NewSQLite(r.migration.Source, dbConfig)
		if err != nil {
			return fmt.Errorf("%w: open source database %s: %w", status.ErrConfiguration, r.migration.Source, err)
		}
		r.source = source
	}
	if r.applier != nil {
		return nil
	}

	host := r.migration.TargetHost
	if r.migration.SSHHost != "" {
		tunnel, err := dbconn.NewTunnel(&dbconn.TunnelConfig{
			Host:       r.migration.SSHHost,
			User:       r.migration.SSHUser,
			KeyPath:    r.migration.SSHKeyPath,
			KnownHosts: r.migration.SSHKnownHosts,
		}, host, r.logger)
		if err != nil {
			return fmt.Errorf("%w: open ssh tunnel: %w", status.ErrConfiguration, err)
		}
		r.tunnel = tunnel
		host = tunnel.LocalAddr
		r.logger.Info("ssh tunnel established", "via", r.migration.SSHHost, "local-addr", host)
	}

	engine := typeconv.TargetType(r.migration.TargetEngine)
	var targetDB *sql.DB
	var err error
	switch engine {
	case typeconv.TargetTypeMySQL:
		hostname, port := utils.SplitHostPort(host, defaultMySQLPort)
		dsn := dbconn.MySQLDSN(hostname, port, r.migration.TargetUsername,
			*r.migration.TargetPassword, r.migration.TargetDatabase, dbConfig)
		targetDB, err = dbconn.NewMySQL(dsn, dbConfig)
	default:
		hostname, port := utils.SplitHostPort(host, defaultPostgresPort)
		connStr := dbconn.PostgresConnStr(hostname, port, r.migration.TargetUsername,
			*r.migration.TargetPassword, r.migration.TargetDatabase, r.migration.SSLMode, dbConfig)
		targetDB, err = dbconn.NewPostgres(connStr, dbConfig)
	}
	if err != nil {
		return fmt.Errorf("%w: connect to target %s: %w", status.ErrConfiguration, r.migration.TargetHost, err)
	}
	if engine == typeconv.TargetTypeMySQL {
		// MySQL auto-commits DDL, so a failed run can leave created
		// tables behind even though the row writes roll back.
		r.logger.Warn("MySQL cannot roll back CREATE TABLE statements on failure")
	}

	r.applier, err = applier.NewApplier(engine, applier.Target{DB: targetDB}, &applier.ApplierConfig{
		Logger: r.logger,
	})
	if err != nil {
		utils.CloseAndLog(targetDB)
		return err
	}
	return nil
}

// filterTables applies the --tables selection. Requested tables that
// do not exist in the source are skipped with a warning rather than
// failing the run.
func (r *Runner) filterTables(all []string) []string {
	if len(r.migration.tables) == 0 {
		return all
	}
	selected := make([]string, 0, len(r.migration.tables))
	for _, name := range r.migration.tables {
		if slices.Contains(all, name) {
			selected = append(selected, name)
		} else {
			r.logger.Warn("table not found in source, skipping", "table", name)
			r.tablesSkipped++
		}
	}
	return selected
}

// migrateTable moves one table through introspection, schema creation
// and data transfer. A table whose introspection fails is skipped and
// the run continues; any target-side failure aborts the run.
func (r *Runner) migrateTable(ctx context.Context, tableName string) error {
	r.Lock()
	r.currentTable = tableName
	r.copier = nil
	r.Unlock()

	r.status.Set(status.Introspecting)
	ti := table.NewTableInfo(r.source, tableName)
	if err := ti.SetInfo(ctx); err != nil {
		r.logger.Error("introspection failed, skipping table", "table", tableName, "error", err)
		r.tablesSkipped++
		return nil
	}

	r.status.Set(status.SchemaCreating)
	if err := r.applier.CreateTable(ctx, ti); err != nil {
		return err
	}

	r.status.Set(status.DataTransferring)
	copierConfig := copier.NewCopierDefaultConfig()
	copierConfig.BatchSize = r.migration.BatchSize
	copierConfig.Logger = r.logger
	copierConfig.MetricsSink = r.metricsSink
	tableCopier, err := copier.NewCopier(r.source, ti, r.applier, copierConfig)
	if err != nil {
		return err
	}
	r.Lock()
	r.copier = tableCopier
	r.Unlock()
	if err := tableCopier.Run(ctx); err != nil {
		return err
	}

	copied := tableCopier.CopiedRows()
	r.rowsMigrated += copied
	r.tablesMigrated++
	r.logger.Info("table migrated", "table", tableName, "rows", copied)
	return nil
}

func (r *Runner) Progress() status.Progress {
	var summary string
	if r.status.Get() == status.DataTransferring {
		r.Lock()
		if r.copier != nil {
			summary = fmt.Sprintf("%s %s", r.currentTable, r.copier.GetProgress())
		}
		r.Unlock()
	}
	return status.Progress{
		CurrentState: r.status.Get(),
		Summary:      summary,
	}
}

func (r *Runner) Status() string {
	state := r.status.Get()
	if state >= status.Done {
		return ""
	}
	r.Lock()
	tableName := r.currentTable
	tableCopier := r.copier
	r.Unlock()
	if state == status.DataTransferring && tableCopier != nil {
		return fmt.Sprintf("migration status: state=%s table=%s copy-progress=%s total-time=%s",
			state.String(),
			tableName,
			tableCopier.GetProgress(),
			time.Since(r.startTime).Round(time.Second),
		)
	}
	return fmt.Sprintf("migration status: state=%s table=%s total-time=%s",
		state.String(),
		tableName,
		time.Since(r.startTime).Round(time.Second),
	)
}

func (r *Runner) Close() error {
	if r.cancelFunc != nil {
		r.cancelFunc()
	}
	if r.source != nil {
		if err := r.source.Close(); err != nil {
			return err
		}
	}
	if r.applier != nil {
		if err := r.applier.Close(); err != nil {
			return err
		}
	}
	if r.tunnel != nil {
		if err := r.tunnel.Close(); err != nil {
			return err
		}
	}
	return nil
}
