// Package rng holds the process-wide random source used for weight
// initialization and dropout masks.
//
// A single source keeps construction reproducible after Seed, and lets
// callers that must not consume randomness (shape probes) snapshot and
// restore it around their work.
package rng

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Default seeds used until Seed is called.
const (
	defaultSeed1 = 0x853c49e6748fea9b
	defaultSeed2 = 0xda3e39cb94b95bdb
)

var (
	mu  sync.Mutex
	src = rand.NewPCG(defaultSeed1, defaultSeed2)
	gen = rand.New(src)
)

// Seed resets the global generator to a deterministic state.
func Seed(seed uint64) {
	mu.Lock()
	defer mu.Unlock()
	src.Seed(seed, seed^defaultSeed2)
}

// Float64 returns a pseudo-random number in [0.0, 1.0).
func Float64() float64 {
	mu.Lock()
	defer mu.Unlock()
	return gen.Float64()
}

// NormFloat64 returns a standard normally distributed number.
func NormFloat64() float64 {
	mu.Lock()
	defer mu.Unlock()
	return gen.NormFloat64()
}

// State is an opaque snapshot of the global generator.
type State []byte

// Snapshot captures the current generator state.
func Snapshot() State {
	mu.Lock()
	defer mu.Unlock()
	b, err := src.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("rng: snapshot: %v", err))
	}
	return b
}

// Restore resets the generator to a previously captured state.
func Restore(s State) error {
	mu.Lock()
	defer mu.Unlock()
	if err := src.UnmarshalBinary(s); err != nil {
		return fmt.Errorf("rng: restore: %w", err)
	}
	return nil
}

// Guard snapshots the generator and returns a function that restores it.
// Intended for defer:
//
//	defer rng.Guard()()
func Guard() func() {
	s := Snapshot()
	return func() {
		if err := Restore(s); err != nil {
			panic(err)
		}
	}
}
