// ABOUTME: Replay filter for inbound channel activities
// ABOUTME: Remembers activity keys for a window so redelivered webhooks are skipped

package dedupe

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// Defaults for channel use.
const (
	DefaultWindow   = 5 * time.Minute
	DefaultCapacity = 10000
)

type entry struct {
	key     string
	expires time.Time
}

// Filter records keys until their window passes. Entries are kept in arrival
// order so expiry and capacity eviction both pop from the front.
type Filter struct {
	mu       sync.Mutex
	index    map[string]*list.Element
	order    *list.List
	window   time.Duration
	capacity int
	now      func() time.Time
}

// New creates a Filter. Non-positive arguments fall back to the defaults.
func New(window time.Duration, capacity int) *Filter {
	if window <= 0 {
		window = DefaultWindow
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Filter{
		index:    make(map[string]*list.Element),
		order:    list.New(),
		window:   window,
		capacity: capacity,
		now:      time.Now,
	}
}

// Key joins the parts that identify one delivery.
func Key(parts ...string) string {
	return strings.Join(parts, "\x1f")
}

// Seen reports whether key was recorded inside the window, and records it if
// not. Empty keys are never recorded.
func (f *Filter) Seen(key string) bool {
	if key == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	f.expire(now)

	if _, ok := f.index[key]; ok {
		return true
	}

	for f.order.Len() >= f.capacity {
		f.remove(f.order.Front())
	}
	f.index[key] = f.order.PushBack(&entry{key: key, expires: now.Add(f.window)})
	return false
}

// Forget drops key so the next delivery is handled again. Used when handling
// failed and the sender is expected to retry.
func (f *Filter) Forget(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if el, ok := f.index[key]; ok {
		f.remove(el)
	}
}

// Len reports how many keys are remembered.
func (f *Filter) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expire(f.now())
	return f.order.Len()
}

// expire pops entries whose window has passed. Entries share one window, so
// the front is always the next to expire. Must be called with mu held.
func (f *Filter) expire(now time.Time) {
	for el := f.order.Front(); el != nil; el = f.order.Front() {
		if now.Before(el.Value.(*entry).expires) {
			return
		}
		f.remove(el)
	}
}

func (f *Filter) remove(el *list.Element) {
	e := f.order.Remove(el).(*entry)
	delete(f.index, e.key)
}
