package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLimiter_BurstThenBlock(t *testing.T) {
	l := New(1, 3, time.Minute)
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("1.2.3.4|/login", now)
		assert.True(t, ok, "attempt %d", i)
	}
	ok, wait := l.Allow("1.2.3.4|/login", now)
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	ok, _ = l.Allow("5.6.7.8|/login", now)
	assert.True(t, ok, "other clients have their own bucket")

	ok, _ = l.Allow("1.2.3.4|/login", now.Add(time.Second))
	assert.True(t, ok, "token refilled")
}

func TestKeyedLimiter_RejectedAttemptsDoNotDrain(t *testing.T) {
	l := New(1, 1, time.Minute)
	now := time.Unix(1_700_000_000, 0)

	ok, _ := l.Allow("k", now)
	assert.True(t, ok)
	for i := 0; i < 10; i++ {
		ok, _ = l.Allow("k", now.Add(100*time.Millisecond))
		assert.False(t, ok)
	}
	ok, _ = l.Allow("k", now.Add(time.Second))
	assert.True(t, ok)
}

func TestKeyedLimiter_NilAndEmptyKey(t *testing.T) {
	var l *KeyedLimiter
	ok, _ := l.Allow("x", time.Now())
	assert.True(t, ok)
	assert.Nil(t, New(0, 5, 0))
	assert.Nil(t, New(1, 0, 0))

	l = New(1, 1, 0)
	for i := 0; i < 5; i++ {
		ok, _ = l.Allow("   ", time.Now())
		assert.True(t, ok)
	}
	assert.Zero(t, l.Len())
}

func TestKeyedLimiter_EvictsIdleKeys(t *testing.T) {
	l := New(10, 10, time.Minute)
	start := time.Unix(1_700_000_000, 0)
	for i := 0; i < 100; i++ {
		l.Allow(fmt.Sprintf("old-%d", i), start)
	}
	assert.Equal(t, 100, l.Len())

	later := start.Add(2 * time.Minute)
	for i := 0; i < sweepEvery; i++ {
		l.Allow("fresh", later)
	}
	assert.Equal(t, 1, l.Len())
}
