package testfixtures

import (
	"fmt"
	"sync/atomic"
)

// IDGenerator yields predictable identifiers such as "res-1", "res-2".
type IDGenerator struct {
	prefix  string
	counter atomic.Uint64
}

func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier.
func (g *IDGenerator) Next() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.counter.Add(1))
}

// Issued reports how many identifiers have been handed out.
func (g *IDGenerator) Issued() int {
	return int(g.counter.Load())
}
