package session

import (
	"fmt"

	"github.com/migratekit/sessionlock"
	"gorm.io/gorm"
)

// FromGorm creates a session out of a GORM handle, for applications that
// already manage their connections through GORM. The lock drivers still
// operate on a pinned database/sql connection underneath; GORM's pool is only
// the source of that connection.
func FromGorm(g *gorm.DB, kind sessionlock.Kind, cfg Config) (*DBSession, error) {
	if g == nil {
		return nil, fmt.Errorf("session: nil gorm handle")
	}

	db, err := g.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance from gorm: %w", err)
	}
	return New(db, kind, cfg)
}
