package orders

import (
	"strconv"
	"sync"
	"time"
)

// NumberGenerator issues human-readable order numbers "ORD<unix millis>". Numbers are
// strictly increasing within a process, so orders created in the same millisecond
// still get distinct numbers.
type NumberGenerator struct {
	mu   sync.Mutex
	last int64
}

func (g *NumberGenerator) Next(now time.Time) string {
	ms := now.UnixMilli()

	g.mu.Lock()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	return "ORD" + strconv.FormatInt(ms, 10)
}
