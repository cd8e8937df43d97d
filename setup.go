package sessionlock

import (
	"context"
	"errors"
	"time"
)

// Service is the backend-agnostic lock service wrapping a Driver. It tracks
// whether this process currently believes it holds the changelog lock and
// translates driver failures into LockError.
//
// A Service is designed to be used from the single goroutine driving a
// migration run. It holds no internal locks and performs no background work;
// mutual exclusion across processes is entirely delegated to the database
// engine's native primitive.
type Service struct {
	sess    Session
	driver  Driver
	cfg     Config
	logger  Logger
	metrics *Metrics

	hasLock bool
}

// NewService creates a lock service for the given session and driver.
// A nil logger disables logging.
func NewService(sess Session, driver Driver, cfg Config, logger Logger) *Service {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Service{
		sess:   sess,
		driver: driver,
		cfg:    cfg,
		logger: logger,
	}
}

// WithMetrics attaches a prometheus collector to the service and returns the
// service for chaining.
func (s *Service) WithMetrics(m *Metrics) *Service {
	s.metrics = m
	return s
}

// Driver returns the backend driver the service was built with.
func (s *Service) Driver() Driver {
	return s.driver
}

// AcquireLock attempts a single, non-blocking acquisition of the changelog
// lock. It returns true if the lock was obtained (or is already held by this
// service) and false if another session holds it. Any driver or connectivity
// failure is returned as a LockError.
//
// When the service already holds the lock the backend is not contacted.
func (s *Service) AcquireLock(ctx context.Context) (bool, error) {
	if s.hasLock {
		return true, nil
	}

	locked, err := s.driver.Acquire(ctx, s.sess)
	if err != nil {
		s.observeAcquire(outcomeError)
		return false, asLockError(err, "failed to acquire change log lock")
	}
	if !locked {
		s.observeAcquire(outcomeContended)
		return false, nil
	}

	s.hasLock = true
	s.observeAcquire(outcomeAcquired)
	s.logger.Info("Successfully acquired change log lock", nil, map[string]interface{}{
		"driver": s.driver.Name(),
	})
	return true, nil
}

// ReleaseLock releases the changelog lock. The local "held" state is reset
// unconditionally, even when the backend release fails, so a future acquire
// is never blocked by this process's own stale belief. A backend failure is
// still returned to the caller after the reset.
func (s *Service) ReleaseLock(ctx context.Context) error {
	defer func() {
		s.hasLock = false
	}()

	if err := s.driver.Release(ctx, s.sess); err != nil {
		s.observeRelease(outcomeError)
		return asLockError(err, "failed to release change log lock")
	}

	s.observeRelease(outcomeReleased)
	s.logger.Info("Successfully released change log lock", nil, map[string]interface{}{
		"driver": s.driver.Name(),
	})
	return nil
}

// WaitForLock polls AcquireLock until it succeeds or the configured wait time
// elapses. At least one acquisition attempt is always made. Cancellation is
// cooperative: the context is only consulted between poll attempts, never
// mid-acquire.
//
// On timeout the returned LockError names the current holder as reported by
// ListLocks, or "UNKNOWN" when introspection yields nothing.
func (s *Service) WaitForLock(ctx context.Context) error {
	start := time.Now()
	deadline := start.Add(s.cfg.waitTime())

	for {
		locked, err := s.AcquireLock(ctx)
		if err != nil {
			return err
		}
		if locked {
			s.observeWait(time.Since(start))
			return nil
		}
		if !time.Now().Before(deadline) {
			break
		}

		s.logger.Info("Waiting for changelog lock....", nil)
		select {
		case <-ctx.Done():
			return WrapLockError(ctx.Err(), "gave up waiting for change log lock")
		case <-time.After(s.cfg.pollInterval()):
		}
	}

	return NewLockError("could not acquire change log lock, currently locked by %s", s.describeHolder(ctx))
}

// describeHolder renders the current lock holder for the WaitForLock timeout
// message. Introspection failures degrade to "UNKNOWN" here; the caller is
// already on an error path.
func (s *Service) describeHolder(ctx context.Context) string {
	locks, err := s.ListLocks(ctx)
	if err != nil || len(locks) == 0 {
		return "UNKNOWN"
	}
	holder := locks[0]
	if holder.GrantedAt.IsZero() {
		return holder.LockedBy
	}
	return holder.LockedBy + " since " + holder.GrantedAt.Format(time.DateTime)
}

// ListLocks reports the current holder of the changelog lock. The result has
// zero or exactly one entry: this service models a single named resource,
// never a set of independent locks.
func (s *Service) ListLocks(ctx context.Context) ([]LockInfo, error) {
	info, err := s.driver.UsedLock(ctx, s.sess)
	if err != nil {
		return nil, asLockError(err, "failed to list change log locks")
	}
	if info == nil {
		return []LockInfo{}, nil
	}
	return []LockInfo{*info}, nil
}

// HasChangeLogLock reports whether this service currently believes it holds
// the lock. Pure local-state read, no I/O.
func (s *Service) HasChangeLogLock() bool {
	return s.hasLock
}

// Init resets the local lock state. Unlike the table-based fallback this
// service manages no persistent state, so there is nothing else to set up.
func (s *Service) Init() {
	s.hasLock = false
}

// Reset clears the local lock state without touching the backend.
func (s *Service) Reset() {
	s.hasLock = false
}

// ForceReleaseLock releases the lock regardless of local state.
func (s *Service) ForceReleaseLock(ctx context.Context) error {
	s.Init()
	return s.ReleaseLock(ctx)
}

// asLockError passes an existing LockError through unchanged and wraps
// anything else, so callers always observe a single error type with the
// original cause chained.
func asLockError(err error, msg string) error {
	var lockErr *LockError
	if errors.As(err, &lockErr) {
		return err
	}
	return WrapLockError(err, "%s", msg)
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
func (nopLogger) Fatal(string, error, ...map[string]interface{}) {}
