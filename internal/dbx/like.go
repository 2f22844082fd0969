package dbx

import (
	"strconv"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds a lower-cased LIKE pattern matching s anywhere.
// Queries must compare against LOWER(column) with ESCAPE '\'.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// PrefixPattern is ContainsPattern anchored at the start.
func PrefixPattern(s string) string {
	return likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// Placeholders returns "$from, $from+1, ..." for n arguments.
func Placeholders(from, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(from + i))
	}
	return b.String()
}
