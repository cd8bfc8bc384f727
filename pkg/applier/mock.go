package applier

import (
	"context"
	"fmt"

	"github.com/outgrowdb/outgrow/pkg/status"
	"github.com/outgrowdb/outgrow/pkg/table"
	"github.com/outgrowdb/outgrow/pkg/typeconv"
)

// MockBatch records one WriteBatch call.
type MockBatch struct {
	Table string
	Rows  [][]any
}

// Mock is a recording applier for tests. It captures created tables and
// batches instead of writing to a real server, and can be programmed to
// fail at a given table.
type Mock struct {
	mapper typeconv.Mapper

	// Types holds the realized column types per table. CreateTable
	// fills it from the declared types unless a test preloads it.
	Types map[string]map[string]string

	FailCreateTable map[string]bool
	FailWriteBatch  map[string]bool

	BeginCalls int
	Commits    int
	Rollbacks  int
	Closed     bool
	Created    []string // table names in creation order
	Batches    []MockBatch
}

var _ Applier = &Mock{}

func NewMock() *Mock {
	return &Mock{
		mapper:          typeconv.GetTypeMapper(typeconv.TargetTypePostgreSQL),
		Types:           make(map[string]map[string]string),
		FailCreateTable: make(map[string]bool),
		FailWriteBatch:  make(map[string]bool),
	}
}

func (m *Mock) Begin(_ context.Context) error {
	m.BeginCalls++
	return nil
}

func (m *Mock) CreateTable(_ context.Context, ti *table.TableInfo) error {
	if m.FailCreateTable[ti.TableName] {
		return fmt.Errorf("%w: create table %s: forced failure", status.ErrTargetSchema, ti.TableName)
	}
	m.Created = append(m.Created, ti.TableName)
	if _, ok := m.Types[ti.TableName]; !ok {
		types := make(map[string]string)
		for _, col := range ti.Columns {
			types[col.Name] = realizedPostgresType(m.mapper.MapType(col.DeclaredType))
		}
		m.Types[ti.TableName] = types
	}
	return nil
}

func (m *Mock) ColumnTypes(_ context.Context, tableName string) (map[string]string, error) {
	types, ok := m.Types[tableName]
	if !ok {
		return nil, fmt.Errorf("%w: column types for %s: table was never created", status.ErrTargetSchema, tableName)
	}
	return types, nil
}

func (m *Mock) WriteBatch(_ context.Context, ti *table.TableInfo, rows [][]any) (int64, error) {
	if m.FailWriteBatch[ti.TableName] {
		return 0, fmt.Errorf("%w: insert into %s: forced failure", status.ErrTargetWrite, ti.TableName)
	}
	m.Batches = append(m.Batches, MockBatch{Table: ti.TableName, Rows: rows})
	return int64(len(rows)), nil
}

func (m *Mock) Commit() error {
	m.Commits++
	return nil
}

func (m *Mock) Rollback() error {
	m.Rollbacks++
	return nil
}

func (m *Mock) Close() error {
	m.Closed = true
	return nil
}

func (m *Mock) TypeMapper() typeconv.Mapper {
	return m.mapper
}

// realizedPostgresType converts a requested DDL type into the spelling
// information_schema.columns reports for it, so mocks behave like a
// real server.
func realizedPostgresType(ddlType string) string {
	switch ddlType {
	case "TIMESTAMP":
		return "timestamp without time zone"
	case "TIME":
		return "time without time zone"
	case "VARCHAR":
		return "character varying"
	case "INTEGER":
		return "integer"
	case "TEXT":
		return "text"
	case "BOOLEAN":
		return "boolean"
	case "DATE":
		return "date"
	case "NUMERIC":
		return "numeric"
	case "REAL":
		return "real"
	case "BYTEA":
		return "bytea"
	case "JSONB":
		return "jsonb"
	}
	return ddlType
}
