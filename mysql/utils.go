package mysql

import (
	"strings"

	"github.com/migratekit/sessionlock"
)

// lockName derives the user-lock name for a session: the upper-cased
// "schema.locktable" pair, truncated to the engine's lock name limit. The
// derivation is deterministic, so every process against the same schema
// contends on the same name.
func lockName(sess sessionlock.Session) string {
	return truncate(strings.ToUpper(sess.SchemaName()+"."+sess.LockTableName()), lockNameMaxLength)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
