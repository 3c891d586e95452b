package capring

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/flightrecorder/capring/internal/blockio"
	"github.com/flightrecorder/capring/internal/codec"
	"github.com/flightrecorder/capring/internal/logging"
	"github.com/flightrecorder/capring/internal/ring"
	"github.com/flightrecorder/capring/internal/shutdown"
)

// CappedStore is a capped, append-only, compressed block store backed by a
// single fixed-size file. One writer at a time, any number of concurrent
// readers; every underlying read syscall briefly takes the same mutex a
// write holds for its whole duration.
type CappedStore struct {
	mu      sync.Mutex
	closing atomic.Bool

	ring                *ring.FileRing
	writer              *blockio.Writer
	compression         codec.Type
	overwrittenResponse string
	logger              logging.Logger
	scheduler           Scheduler
	syncOnFlush         bool

	shutdownHandle shutdown.Handle
	closeOnce      sync.Once
	closeErr       error
}

// Open opens or creates the ring file at path and starts its periodic
// header-flush scheduler. A nil opts uses DefaultOptions().
func Open(path string, opts *Options) (*CappedStore, error) {
	opts = fillDefaults(opts)
	if err := opts.validate(); err != nil {
		return nil, err
	}

	r, err := ring.Open(opts.FS, path, opts.SizeKb)
	if err != nil {
		return nil, fmt.Errorf("capring: open %q: %w", path, err)
	}

	s := &CappedStore{
		ring:                r,
		compression:         opts.Compression,
		overwrittenResponse: opts.OverwrittenResponse,
		logger:              opts.Logger,
		scheduler:           opts.Scheduler,
		syncOnFlush:         opts.SyncOnFlush,
	}
	s.writer = blockio.NewWriter(r, opts.Compression)
	s.shutdownHandle = shutdown.Register(func() {
		if err := s.Close(); err != nil {
			s.logger.Warnf(logging.NSShutdown+"close: %v", err)
		}
	})
	s.scheduler.Start(opts.FlushInterval, s.flushHeader)

	return s, nil
}

// storeLocker adapts CappedStore to blockio.Locker without exposing
// Lock/Unlock on the store's own public API.
type storeLocker struct{ s *CappedStore }

func (l storeLocker) Lock()        { l.s.mu.Lock() }
func (l storeLocker) Unlock()      { l.s.mu.Unlock() }
func (l storeLocker) Closed() bool { return l.s.closing.Load() }

func (s *CappedStore) flushHeader() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing.Load() {
		return
	}
	if err := s.ring.PersistHeader(); err != nil {
		s.logger.Warnf(logging.NSStore+"persist header: %v", err)
		return
	}
	if s.syncOnFlush {
		if err := s.ring.Sync(); err != nil {
			s.logger.Warnf(logging.NSStore+"sync header: %v", err)
		}
	}
}

// Write streams src onto the ring as a single compressed block and returns
// its id, or -1 if the store is closed or closing or the block could not be
// written.
func (s *CappedStore) Write(src CharSource) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing.Load() {
		return -1
	}

	id, err := s.writer.WriteBlock(src)
	if err != nil {
		s.logger.Warnf(logging.NSStore+"write block: %v", err)
		return -1
	}
	return int64(id)
}

// Read returns a lazily-opened stream for block id. If id is already
// overwritten, the stream yields overwrittenResponse instead. The returned
// stream is single-shot; re-reading the same block requires a fresh Read.
func (s *CappedStore) Read(id uint64, overwrittenResponse string) io.ReadCloser {
	return blockio.NewReader(storeLocker{s}, s.ring, id, s.compression, overwrittenResponse)
}

// IsExpired reports whether id no longer lies within the live window.
func (s *CappedStore) IsExpired(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.IsOverwritten(id)
}

// SmallestLiveID returns the smallest id that is currently live.
func (s *CappedStore) SmallestLiveID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.SmallestLiveID()
}

// Resize changes the ring's capacity, preserving ids and bytes for every
// block that still fits in the new live window. A no-op if the store is
// closing.
func (s *CappedStore) Resize(newSizeKb uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing.Load() {
		return nil
	}
	if newSizeKb == 0 {
		return fmt.Errorf("%w: newSizeKb must be positive", ErrInvalidArgument)
	}
	if err := s.ring.Resize(newSizeKb); err != nil {
		return fmt.Errorf("capring: resize: %w", err)
	}
	return nil
}

// Close stops the header-flush scheduler, persists the final header, closes
// both file handles, and deregisters the shutdown hook. Idempotent: safe to
// call more than once, and safe to race with the process-wide shutdown hook
// calling it concurrently.
func (s *CappedStore) Close() error {
	s.closing.Store(true)

	s.closeOnce.Do(func() {
		// Stop before taking the lock: the scheduler goroutine takes the
		// same lock inside flushHeader, so stopping it first avoids Close
		// waiting on a goroutine that is itself waiting on Close's lock.
		s.scheduler.Stop()

		s.mu.Lock()
		defer s.mu.Unlock()

		if err := s.ring.PersistHeader(); err != nil {
			s.logger.Warnf(logging.NSStore+"persist header on close: %v", err)
		}
		s.closeErr = s.ring.Close()
		shutdown.Deregister(s.shutdownHandle)
	})

	return s.closeErr
}
