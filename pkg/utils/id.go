package utils

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator hands out record IDs as epoch-millisecond strings. IDs are
// strictly increasing within the process: when the clock has not advanced
// past the last ID, the next one is last+1.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator creates a generator reading the given clock
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a new ID and the millisecond timestamp it was derived from
func (g *IDGenerator) Next() (string, int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	createdAt := ms
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10), createdAt
}

// NewRequestID generates a request correlation ID
func NewRequestID() string {
	return uuid.New().String()
}
