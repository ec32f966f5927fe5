package service

import (
	"strconv"
	"sync"
	"time"
)

// TimestampLayout matches ISO-8601 with milliseconds in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// idClock hands out unix-millisecond ids that never repeat within a process,
// bumping by one when two calls land in the same millisecond.
type idClock struct {
	now  func() time.Time
	mu   sync.Mutex
	last int64
}

func newIDClock(now func() time.Time) *idClock {
	if now == nil {
		now = time.Now
	}
	return &idClock{now: now}
}

func (c *idClock) next() (id string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	at = c.now()
	ms := at.UnixMilli()
	if ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	return strconv.FormatInt(ms, 10), at
}

// recordID returns "M-" followed by the last six digits of the id.
func (c *idClock) recordID() string {
	id, _ := c.next()
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return "M-" + id
}
