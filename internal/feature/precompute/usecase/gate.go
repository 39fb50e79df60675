package usecase

import "sync/atomic"

// Gate admits one holder at a time. Acquisition never blocks.
type Gate struct {
	held atomic.Bool
}

// TryAcquire takes the gate if it is free.
func (g *Gate) TryAcquire() bool { return g.held.CompareAndSwap(false, true) }

// Release frees the gate.
func (g *Gate) Release() { g.held.Store(false) }

// Held reports whether the gate is currently taken.
func (g *Gate) Held() bool { return g.held.Load() }
