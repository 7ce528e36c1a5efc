// Package naming derives default SQL identifiers and accessor names from
// Go type and column names.
package naming

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

var rules = ruleset()

func ruleset() *inflect.Ruleset {
	r := inflect.NewDefaultRuleset()
	// Common initialisms that snake/camel conversion must keep intact.
	for _, w := range []string{"ID", "SQL", "URL", "URI", "UUID", "API", "HTTP", "JSON"} {
		r.AddAcronym(w)
	}
	return r
}

// Table returns the default table name for a type name: its pluralized
// snake_case form ("UserProfile" -> "user_profiles").
func Table(typeName string) string {
	return Snake(rules.Pluralize(typeName))
}

// JoinTable returns the default join-table name for a pair of type names
// ("User", "Group" -> "user_group").
func JoinTable(left, right string) string {
	return Snake(left) + "_" + Snake(right)
}

// JoinColumn returns the default join-table column for a type name
// ("User" -> "user_id").
func JoinColumn(typeName string) string {
	return Snake(typeName) + "_id"
}

// Accessor returns the exported Go accessor name for a column
// ("user_name" -> "UserName", "id" -> "ID").
func Accessor(column string) string {
	return rules.Camelize(column)
}

// Snake converts a name to snake_case, treating a run of upper-case letters
// as a single word ("HTTPCode" -> "http_code", "UserID" -> "user_id").
func Snake(s string) string {
	var (
		b     strings.Builder
		runes = []rune(s)
	)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			switch {
			case i == 0:
			case runes[i-1] == '_':
			case !unicode.IsUpper(runes[i-1]):
				b.WriteRune('_')
			case i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
