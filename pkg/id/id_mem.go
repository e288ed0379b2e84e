package id

import (
	"sync/atomic"
)

// NewMemGenerator returns a process local generator, the first id is 1
func NewMemGenerator() Generator {
	return NewMemGeneratorFrom(1)
}

// NewMemGeneratorFrom returns a process local generator, the first id is start
func NewMemGeneratorFrom(start uint64) Generator {
	return &memGenerator{last: start - 1}
}

type memGenerator struct {
	last uint64
}

func (g *memGenerator) Gen() (uint64, error) {
	return atomic.AddUint64(&g.last, 1), nil
}
