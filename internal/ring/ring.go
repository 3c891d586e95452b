package ring

import (
	"errors"
	"fmt"

	"github.com/flightrecorder/capring/internal/vfs"
)

// ErrInvalidSize is returned when a ring is opened or resized with a
// non-positive capacity.
var ErrInvalidSize = errors.New("ring: sizeKb must be positive")

// FileRing owns the fixed-size backing file: a writer-side handle used for
// positioned writes and a reader-side handle used for positioned reads, plus
// the in-memory header mirrored to disk on PersistHeader.
//
// FileRing itself holds no lock; callers (CappedStore) serialize access.
type FileRing struct {
	fs   vfs.FS
	path string

	writerFile vfs.File
	readerFile vfs.File

	currentLength uint64
	capacity      uint64 // sizeKb * 1024
	sizeKb        uint32
}

// Open opens path, creating and initializing it with requestedSizeKb if it
// does not already contain a valid header, or reopening the existing ring
// (honoring its on-disk capacity) otherwise.
func Open(fs vfs.FS, path string, requestedSizeKb uint32) (*FileRing, error) {
	if requestedSizeKb == 0 {
		return nil, ErrInvalidSize
	}

	writerFile, err := fs.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ring: open writer handle: %w", err)
	}
	readerFile, err := fs.OpenFile(path)
	if err != nil {
		_ = writerFile.Close()
		return nil, fmt.Errorf("ring: open reader handle: %w", err)
	}

	size, err := writerFile.Size()
	if err != nil {
		_ = writerFile.Close()
		_ = readerFile.Close()
		return nil, fmt.Errorf("ring: stat: %w", err)
	}

	r := &FileRing{fs: fs, path: path, writerFile: writerFile, readerFile: readerFile}

	if size >= HeaderSize {
		var buf [HeaderSize]byte
		if _, err := readerFile.ReadAt(buf[:], 0); err != nil {
			_ = writerFile.Close()
			_ = readerFile.Close()
			return nil, fmt.Errorf("ring: read header: %w", err)
		}
		h := decodeHeader(buf[:])
		if h.sizeKb > 0 {
			r.currentLength = h.currentLength
			r.sizeKb = h.sizeKb
			r.capacity = uint64(h.sizeKb) * 1024
			return r, nil
		}
	}

	// New or empty file: initialize a fresh ring of the requested size.
	r.sizeKb = requestedSizeKb
	r.capacity = uint64(requestedSizeKb) * 1024
	r.currentLength = 0
	if err := writerFile.Truncate(int64(HeaderSize) + int64(r.capacity)); err != nil {
		_ = writerFile.Close()
		_ = readerFile.Close()
		return nil, fmt.Errorf("ring: truncate: %w", err)
	}
	if err := r.PersistHeader(); err != nil {
		_ = writerFile.Close()
		_ = readerFile.Close()
		return nil, err
	}
	return r, nil
}

// CurrentLength returns the total number of bytes ever written to the ring.
func (r *FileRing) CurrentLength() uint64 { return r.currentLength }

// Capacity returns the ring capacity in bytes.
func (r *FileRing) Capacity() uint64 { return r.capacity }

// SizeKb returns the ring capacity in kilobytes.
func (r *FileRing) SizeKb() uint32 { return r.sizeKb }

// LogicalToPhysical maps a logical ring offset to a physical file offset.
func (r *FileRing) LogicalToPhysical(logicalOffset uint64) uint64 {
	return physicalOffset(logicalOffset, r.capacity)
}

// IsOverwritten reports whether id no longer lies within the live window.
// An id that has not been written yet (id >= currentLength) is also
// treated as overwritten, per the "unknown ids are overwritten" contract.
func (r *FileRing) IsOverwritten(id uint64) bool {
	if id >= r.currentLength {
		return true
	}
	return r.currentLength-id > r.capacity
}

// SmallestLiveID returns the smallest id that is still live.
func (r *FileRing) SmallestLiveID() uint64 {
	return smallestLiveID(r.currentLength, r.capacity)
}

// AdvanceWriteHead advances currentLength by delta. Never shrinks.
func (r *FileRing) AdvanceWriteHead(delta uint64) {
	r.currentLength += delta
}

// PersistHeader writes the in-memory header to disk with a single WriteAt.
func (r *FileRing) PersistHeader() error {
	h := header{currentLength: r.currentLength, sizeKb: r.sizeKb}
	buf := h.encode()
	if _, err := r.writerFile.WriteAt(buf[:], 0); err != nil {
		return fmt.Errorf("ring: persist header: %w", err)
	}
	return nil
}

// Sync flushes the writer handle to stable storage.
func (r *FileRing) Sync() error {
	return r.writerFile.Sync()
}

// WriteRing writes p into the ring at logical offset logicalOff, splitting
// across the wrap boundary if necessary. len(p) must not exceed capacity.
func (r *FileRing) WriteRing(p []byte, logicalOff uint64) error {
	return ringWriteAt(r.writerFile, p, logicalOff, r.capacity)
}

// ReadRing reads len(p) bytes from the ring at logical offset logicalOff,
// splitting across the wrap boundary if necessary.
func (r *FileRing) ReadRing(p []byte, logicalOff uint64) error {
	return ringReadAt(r.readerFile, p, logicalOff, r.capacity)
}

// CloseReader closes only the reader-side handle. Resize does not use it:
// it closes and reopens both handles itself.
func (r *FileRing) CloseReader() error {
	if r.readerFile == nil {
		return nil
	}
	err := r.readerFile.Close()
	r.readerFile = nil
	return err
}

// ReopenReader reopens the reader-side handle against the current path.
func (r *FileRing) ReopenReader() error {
	f, err := r.fs.OpenFile(r.path)
	if err != nil {
		return fmt.Errorf("ring: reopen reader handle: %w", err)
	}
	r.readerFile = f
	return nil
}

// Close closes both handles. Safe to call with either handle already nil.
func (r *FileRing) Close() error {
	var firstErr error
	if r.writerFile != nil {
		if err := r.writerFile.Close(); err != nil {
			firstErr = err
		}
		r.writerFile = nil
	}
	if r.readerFile != nil {
		if err := r.readerFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.readerFile = nil
	}
	return firstErr
}

// physicalOffset maps a logical ring offset to a physical file offset for a
// ring of the given capacity.
func physicalOffset(logicalOffset, capacity uint64) uint64 {
	return HeaderSize + (logicalOffset % capacity)
}

// smallestLiveID returns max(0, currentLength-capacity).
func smallestLiveID(currentLength, capacity uint64) uint64 {
	if currentLength <= capacity {
		return 0
	}
	return currentLength - capacity
}

// ringWriteAt writes p to the ring region of f at logicalOff, splitting the
// write across the wrap boundary (capacity -> 0) when necessary. The block
// id is unaffected by wrapping; only the physical layout splits.
func ringWriteAt(f vfs.File, p []byte, logicalOff, capacity uint64) error {
	phys := physicalOffset(logicalOff, capacity)
	spaceUntilWrap := capacity - (logicalOff % capacity)

	if uint64(len(p)) <= spaceUntilWrap {
		_, err := f.WriteAt(p, int64(phys))
		return err
	}

	first := p[:spaceUntilWrap]
	second := p[spaceUntilWrap:]
	if _, err := f.WriteAt(first, int64(phys)); err != nil {
		return err
	}
	_, err := f.WriteAt(second, int64(HeaderSize))
	return err
}

// ringReadAt reads len(p) bytes from the ring region of f at logicalOff,
// splitting across the wrap boundary when necessary, mirroring
// ringWriteAt's split.
func ringReadAt(f vfs.File, p []byte, logicalOff, capacity uint64) error {
	phys := physicalOffset(logicalOff, capacity)
	spaceUntilWrap := capacity - (logicalOff % capacity)

	if uint64(len(p)) <= spaceUntilWrap {
		_, err := f.ReadAt(p, int64(phys))
		return err
	}

	first := p[:spaceUntilWrap]
	second := p[spaceUntilWrap:]
	if _, err := f.ReadAt(first, int64(phys)); err != nil {
		return err
	}
	_, err := f.ReadAt(second, int64(HeaderSize))
	return err
}
