package migration

import (
	"context"
	"fmt"
	"slices"

	"github.com/outgrowdb/outgrow/pkg/applier"
	"github.com/outgrowdb/outgrow/pkg/dbconn"
	"github.com/outgrowdb/outgrow/pkg/status"
	"github.com/outgrowdb/outgrow/pkg/table"
	"github.com/outgrowdb/outgrow/pkg/typeconv"
	"github.com/outgrowdb/outgrow/pkg/utils"
)

// Validate prints the CREATE TABLE statements a migration would run,
// without connecting to the target.
type Validate struct {
	Source       string `name:"source" help:"Path to the SQLite database file" optional:""`
	TargetEngine string `name:"target-engine" help:"Target engine" optional:"" default:"postgres" enum:"postgres,mysql"`
	ConfFile     string `name:"defaults-file" help:"Read connection defaults from an ini file" optional:""`
	Tables       string `name:"tables" help:"Comma-separated list of tables to preview (default: all)" optional:""`
}

func (v *Validate) Run() error {
	m := &Migration{
		Source:       v.Source,
		TargetEngine: v.TargetEngine,
		ConfFile:     v.ConfFile,
		Tables:       v.Tables,
	}
	if err := m.normalizeOptions(); err != nil {
		return err
	}
	db, err := dbconn.NewSQLite(m.Source, dbconn.NewDBConfig())
	if err != nil {
		return fmt.Errorf("%w: open source database %s: %w", status.ErrConfiguration, m.Source, err)
	}
	defer utils.CloseAndLog(db)

	ctx := context.Background()
	tables, err := table.ListTables(ctx, db)
	if err != nil {
		return err
	}
	selected := tables
	if len(m.tables) > 0 {
		selected = make([]string, 0, len(m.tables))
		for _, name := range m.tables {
			if slices.Contains(tables, name) {
				selected = append(selected, name)
			} else {
				fmt.Printf("-- table %q not found in source\n", name)
			}
		}
	}

	engine := typeconv.TargetType(m.TargetEngine)
	for _, name := range selected {
		ti := table.NewTableInfo(db, name)
		if err := ti.SetInfo(ctx); err != nil {
			return err
		}
		fmt.Println(applier.BuildCreateTable(ti, engine) + ";")
	}
	return nil
}
