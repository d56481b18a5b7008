package store

import (
	"fmt"
	"strconv"
	"strings"
)

// idGenerator issues collision-free ids per prefix. The next id for a prefix
// is derived from the maximum numeric suffix observed so far, never from the
// clock, so rapid successive calls stay unique and tests stay deterministic.
type idGenerator struct {
	next map[string]int64
}

func newIDGenerator() *idGenerator {
	return &idGenerator{next: make(map[string]int64)}
}

// Observe records an existing id so future ids for its prefix stay above it.
// Ids that do not match the prefix+number shape are ignored.
func (g *idGenerator) Observe(prefix, id string) {
	suffix, ok := numericSuffix(prefix, id)
	if !ok {
		return
	}
	if suffix >= g.next[prefix] {
		g.next[prefix] = suffix + 1
	}
}

// Next returns a fresh id for the prefix and advances the counter.
func (g *idGenerator) Next(prefix string) string {
	n := g.next[prefix]
	if n == 0 {
		n = 1
	}
	g.next[prefix] = n + 1
	return fmt.Sprintf("%s%06d", prefix, n)
}

func numericSuffix(prefix, id string) (int64, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(id, prefix), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
