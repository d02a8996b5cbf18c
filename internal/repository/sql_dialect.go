package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// dbDialectName returns the dialect name, defaulting to sqlite.
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// buildKeywordLikeCondition builds an OR chain of LIKE conditions over
// the given columns and returns the placeholder count.
func buildKeywordLikeCondition(db *gorm.DB, columns []string) (string, int) {
	return buildKeywordLikeConditionByDialect(dbDialectName(db), columns)
}

func buildKeywordLikeConditionByDialect(dialect string, columns []string) (string, int) {
	parts := make([]string, 0, len(columns))
	argCount := 0
	operator := likeOperatorByDialect(dialect)

	for _, column := range columns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s ?", trimmed, operator))
		argCount++
	}

	return strings.Join(parts, " OR "), argCount
}

// likeOperatorByDialect picks case-insensitive matching per dialect.
// sqlite LIKE is already case-insensitive for ASCII.
func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// repeatLikeArgs repeats the LIKE argument count times.
func repeatLikeArgs(like string, count int) []interface{} {
	args := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		args = append(args, like)
	}
	return args
}
