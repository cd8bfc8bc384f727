package typeconv

import (
	"strings"
)

// PostgreSQLTypeMapper maps SQLite declared types to PostgreSQL types
type PostgreSQLTypeMapper struct{}

var _ Mapper = (*PostgreSQLTypeMapper)(nil)

// postgresTypeRules is the type mapping contract. Matching is by
// substring on the uppercased declared type, so VARCHAR(70) and
// "unsigned big int" style declarations resolve without parsing.
// Note that a declared TIMESTAMP matches the TIME rule, not DATETIME.
var postgresTypeRules = []typeRule{
	{"DATETIME", "TIMESTAMP"},
	{"INTEGER", "INTEGER"},
	{"NUMERIC", "NUMERIC"},
	{"VARCHAR", "VARCHAR"},
	{"BOOLEAN", "BOOLEAN"},
	{"TEXT", "TEXT"},
	{"REAL", "REAL"},
	{"BLOB", "BYTEA"},
	{"DATE", "DATE"},
	{"TIME", "TIME"},
	{"JSON", "JSONB"},
}

func (m *PostgreSQLTypeMapper) MapType(declaredType string) string {
	if target, ok := matchType(postgresTypeRules, declaredType); ok {
		return target
	}
	// SQLite accepts almost any type name (or none at all). TEXT is the
	// safe representation for anything unrecognized.
	return "TEXT"
}

// MapValue converts a value for the realized PostgreSQL column type as
// reported by information_schema.columns (e.g. "timestamp without time
// zone", not the "TIMESTAMP" we asked for).
func (m *PostgreSQLTypeMapper) MapValue(value interface{}, targetType string) interface{} {
	if value == nil {
		return nil
	}
	switch strings.ToLower(targetType) {
	case "boolean":
		return toBool(value)
	case "timestamp without time zone", "timestamp with time zone":
		return toTimestamp(value)
	case "date":
		return toDate(value)
	case "time without time zone", "time with time zone":
		return toClock(value)
	}
	return value
}
