package session

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/migratekit/sessionlock"
)

// DBSession pins a single connection out of a *sql.DB pool and hands it to
// the lock drivers on every call. Pinning matters: the native lock belongs to
// the database session behind that one connection, so acquire and release
// must see the same connection or the lock leaks until the session dies.
type DBSession struct {
	db   *sql.DB
	kind sessionlock.Kind
	cfg  Config

	mu   sync.Mutex
	conn *sql.Conn
}

// New creates a session over the given database handle. The handle stays
// owned by the caller; Close only ends the pinned connection, not the pool.
func New(db *sql.DB, kind sessionlock.Kind, cfg Config) (*DBSession, error) {
	if db == nil {
		return nil, fmt.Errorf("session: nil database handle")
	}
	if cfg.Schema == "" {
		return nil, fmt.Errorf("session: schema name is required")
	}

	return &DBSession{
		db:   db,
		kind: kind,
		cfg:  cfg,
	}, nil
}

// Conn returns the pinned connection, pinning one on first use. Every call
// after that returns the same connection until Close.
func (s *DBSession) Conn(ctx context.Context) (*sql.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return s.conn, nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pin database connection: %w", err)
	}
	s.conn = conn
	return s.conn, nil
}

// Close ends the pinned connection's database session, which releases any
// native lock it still held. The connection is poisoned before closing so the
// pool discards it instead of recycling it; a recycled connection would carry
// the lock over to an unrelated caller.
func (s *DBSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	conn := s.conn
	s.conn = nil

	_ = conn.Raw(func(driverConn interface{}) error {
		return driver.ErrBadConn
	})
	if err := conn.Close(); err != nil && err != sql.ErrConnDone {
		return err
	}
	return nil
}

func (s *DBSession) Kind() sessionlock.Kind {
	return s.kind
}

func (s *DBSession) SchemaName() string {
	return s.cfg.Schema
}

func (s *DBSession) LockTableName() string {
	return s.cfg.lockTable()
}

// ServerVersion probes the engine version on the pinned connection. Only
// PostgreSQL and the MySQL family are implemented; drivers for other engines
// have no version gate.
func (s *DBSession) ServerVersion(ctx context.Context) (int, int, error) {
	conn, err := s.Conn(ctx)
	if err != nil {
		return 0, 0, err
	}

	switch s.kind {
	case sessionlock.KindPostgres:
		var num int
		row := conn.QueryRowContext(ctx, "SELECT current_setting('server_version_num')::int")
		if err := row.Scan(&num); err != nil {
			return 0, 0, fmt.Errorf("failed to query server version: %w", err)
		}
		// server_version_num is major*10000+minor since version 10,
		// major*10000+minor*100+patch before that.
		if num >= 100000 {
			return num / 10000, num % 10000, nil
		}
		return num / 10000, (num % 10000) / 100, nil

	case sessionlock.KindMySQL, sessionlock.KindMariaDB:
		var version string
		row := conn.QueryRowContext(ctx, "SELECT VERSION()")
		if err := row.Scan(&version); err != nil {
			return 0, 0, fmt.Errorf("failed to query server version: %w", err)
		}
		return parseVersion(version)

	default:
		return 0, 0, fmt.Errorf("server version probe not supported for %q", s.kind)
	}
}

// parseVersion extracts "major.minor" from a version banner such as
// "8.0.36-log" or "10.11.6-MariaDB".
func parseVersion(version string) (int, int, error) {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unparseable server version %q", version)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("unparseable server version %q", version)
	}
	minorStr := parts[1]
	if i := strings.IndexFunc(minorStr, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		minorStr = minorStr[:i]
	}
	minor, err := strconv.Atoi(minorStr)
	if err != nil {
		return 0, 0, fmt.Errorf("unparseable server version %q", version)
	}
	return major, minor, nil
}

var _ sessionlock.Session = (*DBSession)(nil)
