package utils

import (
	"strconv"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes s match literally inside a LIKE/ILIKE pattern using the
// default backslash escape.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// StatsCacheKey names one generation of an owner's cached counts. Bumping the
// generation orphans every key built from an older one.
func StatsCacheKey(ownerID string, gen int64) string {
	return "stats:v2:" + ownerID + ":" + strconv.FormatInt(gen, 10)
}

func StatsGenerationKey(ownerID string) string {
	return "stats:gen:" + ownerID
}
