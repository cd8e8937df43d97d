package sessionlock

import "time"

// Defaults for the WaitForLock poll loop.
const (
	DefaultWaitTime     = 5 * time.Minute
	DefaultPollInterval = 5 * time.Second
)

type Config struct {
	// WaitTime is the maximum time WaitForLock keeps polling before giving
	// up. Zero means DefaultWaitTime.
	WaitTime time.Duration

	// PollInterval is the sleep between acquisition attempts in
	// WaitForLock. Zero means DefaultPollInterval.
	PollInterval time.Duration
}

func (c Config) waitTime() time.Duration {
	if c.WaitTime <= 0 {
		return DefaultWaitTime
	}
	return c.WaitTime
}

func (c Config) pollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return c.PollInterval
}
