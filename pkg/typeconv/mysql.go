package typeconv

import "strings"

// MySQLTypeMapper maps SQLite declared types to MySQL types
type MySQLTypeMapper struct{}

var _ Mapper = (*MySQLTypeMapper)(nil)

// mysqlTypeRules mirrors postgresTypeRules with MySQL spellings.
// VARCHAR needs an explicit length because MySQL rejects a bare VARCHAR.
var mysqlTypeRules = []typeRule{
	{"DATETIME", "DATETIME"},
	{"INTEGER", "INTEGER"},
	{"NUMERIC", "NUMERIC"},
	{"VARCHAR", "VARCHAR(255)"},
	{"BOOLEAN", "BOOLEAN"},
	{"TEXT", "TEXT"},
	{"REAL", "REAL"},
	{"BLOB", "LONGBLOB"},
	{"DATE", "DATE"},
	{"TIME", "TIME"},
	{"JSON", "JSON"},
}

func (m *MySQLTypeMapper) MapType(declaredType string) string {
	if target, ok := matchType(mysqlTypeRules, declaredType); ok {
		return target
	}
	return "TEXT"
}

// MapValue converts a value for the realized MySQL column type as
// reported by information_schema COLUMN_TYPE. BOOLEAN realizes as
// tinyint(1) on MySQL.
func (m *MySQLTypeMapper) MapValue(value interface{}, targetType string) interface{} {
	if value == nil {
		return nil
	}
	switch strings.ToLower(targetType) {
	case "tinyint(1)", "boolean":
		return toBool(value)
	case "datetime", "timestamp":
		return toTimestamp(value)
	case "date":
		return toDate(value)
	case "time":
		return toClock(value)
	}
	return value
}
