// Package capring implements a capped, append-only, compressed block store:
// a single fixed-size file behaving as a circular log. Producers append
// variable-length byte streams and get back an opaque, monotonically
// increasing id; consumers fetch a previously written block by id, or learn
// that it has been overwritten by the ring's wrap-around.
//
// The store never grows its backing file beyond the configured size. Once
// the ring wraps, the oldest blocks become unreadable in FIFO order — by
// design, for a store meant to hold a bounded, always-on history rather
// than a complete log.
package capring
