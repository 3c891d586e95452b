// Package shutdown provides a process-wide registry of cleanup callbacks,
// so that every open CappedStore can be torn down from a single call site
// (an atexit hook, a signal handler) without the caller needing to track
// every store it ever opened.
//
// Grounded on the shutdownCh/WaitGroup shape of a background worker's
// Start/Stop pair: registration is cheap and non-blocking, and Deregister
// (like Stop) must tolerate being raced by the thing it's tearing down.
package shutdown

import (
	"slices"
	"sync"
)

var (
	mu       sync.Mutex
	handles  = make(map[int64]func())
	nextID   int64
)

// Handle identifies a registered callback so it can be deregistered later.
type Handle struct {
	id int64
}

// Register adds fn to the process-wide shutdown registry and returns a
// Handle that can later be passed to Deregister. fn must be idempotent and
// safe to call concurrently with Deregister racing it, since Shutdown may
// run fn concurrently with a caller that is simultaneously closing the same
// resource through its normal API.
func Register(fn func()) Handle {
	mu.Lock()
	defer mu.Unlock()
	nextID++
	id := nextID
	handles[id] = fn
	return Handle{id: id}
}

// Deregister removes h from the registry. Safe to call more than once, or
// with a Handle that was never registered (e.g. a zero Handle).
func Deregister(h Handle) {
	mu.Lock()
	defer mu.Unlock()
	delete(handles, h.id)
}

// Shutdown invokes every currently registered callback and clears the
// registry. Callbacks run sequentially in registration order on the calling
// goroutine; a slow callback delays the rest. Safe to call more than once:
// a second call simply finds nothing registered.
func Shutdown() {
	mu.Lock()
	ids := make([]int64, 0, len(handles))
	for id := range handles {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, handles[id])
	}
	handles = make(map[int64]func())
	mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Count returns the number of currently registered callbacks. Intended for
// tests.
func Count() int {
	mu.Lock()
	defer mu.Unlock()
	return len(handles)
}
