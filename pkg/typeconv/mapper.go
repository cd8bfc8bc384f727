// Package typeconv maps SQLite declared column types to target database
// types and converts row values into a representation the target driver
// will accept.
package typeconv

import "strings"

// Mapper maps SQLite types to target database types.
type Mapper interface {
	// MapType returns the target column type for a declared source type.
	// It is total: unrecognized declared types fall back to TEXT.
	MapType(declaredType string) string
	// MapValue converts a single cell value for a column whose realized
	// type on the target is targetType. It never fails: values that
	// cannot be converted are passed through unchanged.
	MapValue(value interface{}, targetType string) interface{}
}

// TargetType represents the type of target database
type TargetType string

const (
	TargetTypePostgreSQL TargetType = "postgres"
	TargetTypeMySQL      TargetType = "mysql"
)

// GetTypeMapper returns the appropriate type mapper for the target type
func GetTypeMapper(targetType TargetType) Mapper {
	switch targetType {
	case TargetTypeMySQL:
		return &MySQLTypeMapper{}
	case TargetTypePostgreSQL:
		return &PostgreSQLTypeMapper{}
	default:
		// Default to PostgreSQL, the primary target. Engine names are
		// validated at option parsing so this is not reached from the CLI.
		return &PostgreSQLTypeMapper{}
	}
}

// typeRule maps a source type keyword to a target type. Rules are
// evaluated in order and the first keyword contained in the declared
// type wins, so keywords that contain other keywords as substrings
// (DATETIME vs DATE and TIME) must be listed first.
type typeRule struct {
	keyword string
	target  string
}

func matchType(rules []typeRule, declaredType string) (string, bool) {
	upperType := strings.ToUpper(declaredType)
	for _, rule := range rules {
		if strings.Contains(upperType, rule.keyword) {
			return rule.target, true
		}
	}
	return "", false
}
