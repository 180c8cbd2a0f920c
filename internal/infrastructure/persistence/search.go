package persistence

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern lower-cases term and turns it into a LIKE pattern with
// wildcards escaped. A Caser is stateful, so each call gets its own.
func containsPattern(term string) string {
	lowered := cases.Lower(language.Und).String(strings.TrimSpace(term))
	return "%" + likeEscaper.Replace(lowered) + "%"
}

// applySearch adds a case-insensitive substring match of term over columns
func applySearch(query *gorm.DB, term string, columns ...string) *gorm.DB {
	if strings.TrimSpace(term) == "" || len(columns) == 0 {
		return query
	}
	pattern := containsPattern(term)
	conds := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		conds[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	return query.Where("("+strings.Join(conds, " OR ")+")", args...)
}
