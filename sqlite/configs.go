package sqlite

// Config describes an embedded database file.
type Config struct {
	// Path is the database file path or a sqlite URI.
	Path string `json:"path"`
	// Schema overrides the logical schema name in the lock descriptor,
	// "main" when empty.
	Schema string `json:"schema"`
	// LockTable overrides the lock table name component.
	LockTable string `json:"lock_table"`
}

func (c Config) schema() string {
	if c.Schema == "" {
		return "main"
	}
	return c.Schema
}
