// Package copier contains the row transfer path: it streams rows out
// of the source table, converts each value to its realized target type
// and hands batches to the applier.
package copier

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/outgrowdb/outgrow/pkg/applier"
	"github.com/outgrowdb/outgrow/pkg/metrics"
	"github.com/outgrowdb/outgrow/pkg/table"
)

// DefaultBatchSize is how many rows are grouped into one INSERT when
// the caller does not configure a batch size.
const DefaultBatchSize = 100

// Copier is the interface which copiers use. The only implementation
// reads one table on a single connection, which keeps the source reads
// and the target transaction trivially ordered.
type Copier interface {
	Run(ctx context.Context) error
	GetProgress() string
	StartTime() time.Time
	CopiedRows() uint64
}

type CopierConfig struct {
	BatchSize   int
	Logger      *slog.Logger
	MetricsSink metrics.Sink
}

// NewCopierDefaultConfig returns a default config for the copier.
func NewCopierDefaultConfig() *CopierConfig {
	return &CopierConfig{
		BatchSize:   DefaultBatchSize,
		Logger:      slog.Default(),
		MetricsSink: &metrics.NoopSink{},
	}
}

// NewCopier creates a new copier for one table. The table info must
// already be populated, and the applier must hold an open transaction
// by the time Run is called.
func NewCopier(db *sql.DB, ti *table.TableInfo, app applier.Applier, config *CopierConfig) (Copier, error) {
	if ti == nil {
		return nil, errors.New("table info must be non-nil")
	}
	if app == nil {
		return nil, errors.New("applier must be non-nil")
	}
	if config.BatchSize < 1 {
		return nil, errors.New("batch size must be at least 1")
	}
	return &Sequential{
		db:          db,
		ti:          ti,
		applier:     app,
		batchSize:   config.BatchSize,
		logger:      config.Logger,
		metricsSink: config.MetricsSink,
	}, nil
}
