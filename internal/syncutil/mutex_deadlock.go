//go:build deadlock

package syncutil

import deadlock "github.com/sasha-s/go-deadlock"

// RWMutex reports lock ordering problems and long waits.
type RWMutex struct {
	deadlock.RWMutex
}
