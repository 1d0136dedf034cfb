//go:build !deadlock

// Package syncutil holds the locks guarding process wide registries. Builds
// tagged deadlock swap them for github.com/sasha-s/go-deadlock.
package syncutil

import "sync"

// RWMutex is a plain sync.RWMutex.
type RWMutex struct {
	sync.RWMutex
}
