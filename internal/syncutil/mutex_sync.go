//go:build !deadlock

// Package syncutil provides the mutex types used by the session controller and
// the bridge. Builds with -tags=deadlock swap them for
// github.com/sasha-s/go-deadlock so lock-order bugs between tag events and
// write requests surface in tests.
package syncutil

import "sync"

// Mutex is a sync.Mutex in regular builds.
//
//nolint:gocritic // embedding exposes Lock/Unlock directly
type Mutex struct {
	sync.Mutex
}

// RWMutex is a sync.RWMutex in regular builds.
//
//nolint:gocritic // embedding exposes the RWMutex method set directly
type RWMutex struct {
	sync.RWMutex
}
