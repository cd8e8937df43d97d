package sessionlock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectPicksHighestPrioritySupportingDriver(t *testing.T) {
	low := &stubDriver{name: "low", priority: PriorityDefault, supports: true}
	high := &stubDriver{name: "high", priority: PrioritySessionLock, supports: true}
	unsupported := &stubDriver{name: "unsupported", priority: PrioritySessionLock + 5, supports: false}

	picked := Select(context.Background(), &stubSession{kind: KindPostgres}, low, unsupported, high)
	assert.Same(t, high, picked)
}

func TestSelectBreaksTiesByPosition(t *testing.T) {
	first := &stubDriver{name: "first", priority: PrioritySessionLock, supports: true}
	second := &stubDriver{name: "second", priority: PrioritySessionLock, supports: true}

	picked := Select(context.Background(), &stubSession{kind: KindPostgres}, first, second)
	assert.Same(t, first, picked)
}

func TestSelectReturnsNilWithoutCandidates(t *testing.T) {
	assert.Nil(t, Select(context.Background(), &stubSession{kind: KindPostgres}))

	unsupported := &stubDriver{name: "unsupported", supports: false}
	assert.Nil(t, Select(context.Background(), &stubSession{kind: KindPostgres}, unsupported, nil))
}

func TestSessionLockPriorityOutranksDefault(t *testing.T) {
	assert.Greater(t, PrioritySessionLock, PriorityDefault)
}
