// Package idgen produces the short human-readable identifiers used for
// order numbers, slugs and address ids.
package idgen

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

const base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandomBase36 returns n random lowercase base36 characters.
func RandomBase36(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(base36Digits[rand.Intn(len(base36Digits))])
	}
	return sb.String()
}

// Base36Millis renders t as milliseconds since the epoch in base36.
func Base36Millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 36)
}

// OrderNumbers generates PREFIX-<TIME>-<RAND> order numbers. The time part
// is strictly increasing within one process, so two numbers from the same
// generator never collide even when issued in the same millisecond.
type OrderNumbers struct {
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	last int64
}

// NewOrderNumbers creates a generator; now may be nil to use time.Now.
func NewOrderNumbers(prefix string, now func() time.Time) *OrderNumbers {
	if now == nil {
		now = time.Now
	}
	return &OrderNumbers{prefix: prefix, now: now}
}

// Next returns a fresh order number.
func (g *OrderNumbers) Next() string {
	g.mu.Lock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	stamp := strings.ToUpper(strconv.FormatInt(ms, 36))
	suffix := strings.ToUpper(RandomBase36(4))
	return g.prefix + "-" + stamp + "-" + suffix
}
