package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	c := New()

	c.Set("key", "value", time.Minute)

	got, found := c.Get("key")
	require.True(t, found)
	assert.Equal(t, "value", got)
}

func TestGetMissing(t *testing.T) {
	c := New()

	_, found := c.Get("nope")
	assert.False(t, found)
}

func TestSetDefault(t *testing.T) {
	c := New()

	c.SetDefault("key", 42)

	got, found := c.Get("key")
	require.True(t, found)
	assert.Equal(t, 42, got)
}

func TestDelete(t *testing.T) {
	c := New()

	c.Set("key", "value", time.Minute)
	c.Delete("key")

	_, found := c.Get("key")
	assert.False(t, found)
}

func TestExpiration(t *testing.T) {
	c := New()

	c.Set("key", "value", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, found := c.Get("key")
	assert.False(t, found)
}

func TestIncrementCounter(t *testing.T) {
	c := New()

	assert.Equal(t, 1, c.IncrementCounter("failures", time.Minute))
	assert.Equal(t, 2, c.IncrementCounter("failures", time.Minute))
	assert.Equal(t, 3, c.IncrementCounter("failures", time.Minute))
	assert.Equal(t, 3, c.CounterValue("failures"))
}

func TestCounterValueAbsent(t *testing.T) {
	c := New()

	assert.Equal(t, 0, c.CounterValue("never-set"))
}

func TestResetCounter(t *testing.T) {
	c := New()

	c.IncrementCounter("failures", time.Minute)
	c.IncrementCounter("failures", time.Minute)
	c.ResetCounter("failures")

	assert.Equal(t, 0, c.CounterValue("failures"))
	assert.Equal(t, 1, c.IncrementCounter("failures", time.Minute), "reset starts a fresh window")
}

func TestCounterExpires(t *testing.T) {
	c := New()

	c.IncrementCounter("failures", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, 0, c.CounterValue("failures"))
	assert.Equal(t, 1, c.IncrementCounter("failures", time.Minute))
}

func TestCountersAreIndependent(t *testing.T) {
	c := New()

	c.IncrementCounter("query_failures:1", time.Minute)
	c.IncrementCounter("query_failures:2", time.Minute)
	c.IncrementCounter("query_failures:2", time.Minute)

	assert.Equal(t, 1, c.CounterValue("query_failures:1"))
	assert.Equal(t, 2, c.CounterValue("query_failures:2"))
}
