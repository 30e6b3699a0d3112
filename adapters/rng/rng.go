package rng

import (
	"context"
	"hash/fnv"
	"math/rand"

	"adogo/ports"
)

// Adapter implements ports.RNGPort with deterministic stream derivation:
// the same (name, seed) pair always yields an identically seeded stream.
type Adapter struct{}

// New creates a deterministic RNG adapter.
func New() *Adapter {
	return &Adapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(deriveSeed(name, seed))), nil
}

// Stream creates a deterministic RNG stream for a specific session/purpose
func (a *Adapter) Stream(ctx context.Context, sessionID, purpose string, baseSeed int64) (*rand.Rand, error) {
	return a.SeededStream(ctx, sessionID+"/"+purpose, baseSeed)
}

// deriveSeed folds the stream name into the base seed so distinct streams
// never share a sequence.
func deriveSeed(name string, seed int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return seed ^ int64(h.Sum64())
}

var _ ports.RNGPort = (*Adapter)(nil)
