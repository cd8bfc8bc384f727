package copier

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/outgrowdb/outgrow/pkg/applier"
	"github.com/outgrowdb/outgrow/pkg/metrics"
	"github.com/outgrowdb/outgrow/pkg/status"
	"github.com/outgrowdb/outgrow/pkg/table"
)

type Sequential struct {
	sync.Mutex

	db          *sql.DB
	ti          *table.TableInfo
	applier     applier.Applier
	batchSize   int
	copiedRows  uint64
	totalRows   uint64
	startTime   time.Time
	logger      *slog.Logger
	metricsSink metrics.Sink
}

// Assert that Sequential implements the Copier interface
var _ Copier = (*Sequential)(nil)

// Run copies every row of the table. Cells are converted against the
// realized target types and rows are flushed in groups of batchSize,
// each group becoming one multi-row INSERT on the applier.
func (c *Sequential) Run(ctx context.Context) error {
	c.Lock()
	c.startTime = time.Now()
	c.Unlock()

	total, err := c.countRows(ctx)
	if err != nil {
		return err
	}
	c.Lock()
	c.totalRows = total
	c.Unlock()
	if total == 0 {
		c.logger.Info("table is empty, nothing to copy", "table", c.ti.TableName)
		return nil
	}

	// The realized types come from the target after CreateTable ran,
	// so conversion follows what the server actually created rather
	// than the requested DDL.
	realized, err := c.applier.ColumnTypes(ctx, c.ti.TableName)
	if err != nil {
		return err
	}
	targetTypes := make([]string, len(c.ti.Columns))
	for i, col := range c.ti.Columns {
		targetTypes[i] = realized[col.Name] // "" passes values through untouched
	}

	mapper := c.applier.TypeMapper()
	rows, err := c.db.QueryContext(ctx, "SELECT * FROM "+c.ti.QuotedName)
	if err != nil {
		return fmt.Errorf("%w: read rows from %s: %w", status.ErrSourceQuery, c.ti.TableName, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("%w: read rows from %s: %w", status.ErrSourceQuery, c.ti.TableName, err)
	}
	if !slices.Equal(columns, c.ti.ColumnNames()) {
		return fmt.Errorf("%w: table %s changed during copy", status.ErrSourceQuery, c.ti.TableName)
	}

	batch := make([][]any, 0, c.batchSize)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("%w: read rows from %s: %w", status.ErrSourceQuery, c.ti.TableName, err)
		}
		for i, targetType := range targetTypes {
			if targetType != "" {
				values[i] = mapper.MapValue(values[i], targetType)
			}
		}
		batch = append(batch, values)
		if len(batch) == c.batchSize {
			if err := c.flush(ctx, batch); err != nil {
				return err
			}
			batch = make([][]any, 0, c.batchSize)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: read rows from %s: %w", status.ErrSourceQuery, c.ti.TableName, err)
	}
	if len(batch) > 0 {
		return c.flush(ctx, batch)
	}
	return nil
}

func (c *Sequential) countRows(ctx context.Context) (uint64, error) {
	var count uint64
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.ti.QuotedName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count rows in %s: %w", status.ErrSourceQuery, c.ti.TableName, err)
	}
	return count, nil
}

func (c *Sequential) flush(ctx context.Context, batch [][]any) error {
	startTime := time.Now()
	affected, err := c.applier.WriteBatch(ctx, c.ti, batch)
	if err != nil {
		return err
	}
	atomic.AddUint64(&c.copiedRows, uint64(len(batch)))

	err = c.sendMetrics(ctx, time.Since(startTime), uint64(len(batch)), uint64(affected))
	if err != nil {
		// we don't want to stop processing if metrics sending fails, log and continue
		c.logger.Error("error sending metrics from copier", "error", err)
	}
	return nil
}

func (c *Sequential) sendMetrics(ctx context.Context, processingTime time.Duration, logicalRowsCount uint64, affectedRowsCount uint64) error {
	m := &metrics.Metrics{
		Values: []metrics.MetricValue{
			{
				Name:  metrics.BatchProcessingTimeMetricName,
				Type:  metrics.GAUGE,
				Value: float64(processingTime.Milliseconds()), // in milliseconds
			},
			{
				Name:  metrics.BatchLogicalRowsCountMetricName,
				Type:  metrics.COUNTER,
				Value: float64(logicalRowsCount),
			},
			{
				Name:  metrics.BatchAffectedRowsCountMetricName,
				Type:  metrics.COUNTER,
				Value: float64(affectedRowsCount),
			},
		},
	}

	contextWithTimeout, cancel := context.WithTimeout(ctx, metrics.SinkTimeout)
	defer cancel()

	return c.metricsSink.Send(contextWithTimeout, m)
}

func (c *Sequential) getCopyStats() (uint64, uint64, float64) {
	copied := atomic.LoadUint64(&c.copiedRows)
	total := c.totalRows

	pct := float64(0)
	if total > 0 {
		pct = float64(copied) / float64(total) * 100
	}
	return copied, total, pct
}

// GetProgress returns the progress of the copier
func (c *Sequential) GetProgress() string {
	c.Lock()
	defer c.Unlock()
	copied, total, pct := c.getCopyStats()
	return fmt.Sprintf("%d/%d %.2f%%", copied, total, pct)
}

func (c *Sequential) StartTime() time.Time {
	c.Lock()
	defer c.Unlock()
	return c.startTime
}

// CopiedRows returns how many rows have been flushed to the target.
func (c *Sequential) CopiedRows() uint64 {
	return atomic.LoadUint64(&c.copiedRows)
}
