package testfixtures

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// fixtureNamespace seeds deterministic UUIDs produced by UUID generators.
var fixtureNamespace = uuid.MustParse("6f1c7a52-0d3e-4b8a-9a44-2d5b6c1e7f30")

// IDGenerator yields deterministic identifiers. Prefix generators produce
// "<prefix>-<n>"; UUID generators produce stable name based UUIDs so that code
// which expects booking ids in UUID form can be exercised.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	uuids   bool
	counter uint64
}

// NewIDGenerator returns a prefix generator. An empty prefix becomes "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// NewUUIDGenerator returns a generator of deterministic UUIDs derived from seed.
func NewUUIDGenerator(seed string) *IDGenerator {
	return &IDGenerator{prefix: seed, uuids: true}
}

func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	if !g.uuids {
		return fmt.Sprintf("%s-%d", g.prefix, g.counter)
	}
	name := make([]byte, len(g.prefix)+8)
	copy(name, g.prefix)
	binary.BigEndian.PutUint64(name[len(g.prefix):], g.counter)
	return uuid.NewSHA1(fixtureNamespace, name).String()
}

// NextFunc returns Next as an injectable function.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Reset restarts the sequence.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.counter = 0
	g.mu.Unlock()
}
