//go:build deadlock

// Package syncutil provides the mutex types used by the session controller and
// the bridge, here backed by go-deadlock for lock-order diagnostics.
package syncutil

import deadlock "github.com/sasha-s/go-deadlock"

// Mutex reports potential deadlocks instead of hanging.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex reports potential deadlocks instead of hanging.
type RWMutex struct {
	deadlock.RWMutex
}
