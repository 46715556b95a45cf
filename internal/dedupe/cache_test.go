// ABOUTME: Tests for the activity replay filter
// ABOUTME: Validates window expiry, capacity eviction, Forget and concurrency safety

package dedupe

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestFilter(window time.Duration, capacity int) (*Filter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	f := New(window, capacity)
	f.now = clock.Now
	return f, clock
}

func TestFilter_FirstDeliveryIsNew(t *testing.T) {
	f, _ := newTestFilter(time.Minute, 10)

	assert.False(t, f.Seen("a"))
	assert.True(t, f.Seen("a"))
	assert.True(t, f.Seen("a"))
	assert.False(t, f.Seen("b"))
}

func TestFilter_EmptyKeyNeverRecorded(t *testing.T) {
	f, _ := newTestFilter(time.Minute, 10)

	assert.False(t, f.Seen(""))
	assert.False(t, f.Seen(""))
	assert.Zero(t, f.Len())
}

func TestFilter_WindowExpiry(t *testing.T) {
	f, clock := newTestFilter(time.Minute, 10)

	assert.False(t, f.Seen("a"))
	clock.Advance(30 * time.Second)
	assert.False(t, f.Seen("b"))

	clock.Advance(30 * time.Second)
	assert.False(t, f.Seen("a"), "a expired exactly at the window edge")
	assert.True(t, f.Seen("b"))

	clock.Advance(31 * time.Second)
	assert.Equal(t, 1, f.Len(), "only the renewed a remains")
}

func TestFilter_CapacityEvictsOldest(t *testing.T) {
	f, _ := newTestFilter(time.Hour, 3)

	for _, k := range []string{"a", "b", "c", "d"} {
		assert.False(t, f.Seen(k))
	}
	assert.Equal(t, 3, f.Len())
	assert.False(t, f.Seen("a"), "a was evicted")
	assert.True(t, f.Seen("d"))
}

func TestFilter_Forget(t *testing.T) {
	f, _ := newTestFilter(time.Hour, 10)

	assert.False(t, f.Seen("a"))
	f.Forget("a")
	f.Forget("missing")
	assert.False(t, f.Seen("a"))
	assert.True(t, f.Seen("a"))
}

func TestNew_Defaults(t *testing.T) {
	f := New(0, -1)
	assert.Equal(t, DefaultWindow, f.window)
	assert.Equal(t, DefaultCapacity, f.capacity)
}

func TestKey(t *testing.T) {
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	assert.Equal(t, Key("msteams", "conv", "act"), Key("msteams", "conv", "act"))
}

func TestFilter_ConcurrentSeenAdmitsOnce(t *testing.T) {
	f := New(time.Minute, 100)

	var fresh atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !f.Seen("same-activity") {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, fresh.Load())
}
