package ring

import "fmt"

// resizeCopyChunk bounds how much of the live window is held in memory at
// once while rebuilding the ring at a new capacity.
const resizeCopyChunk = 64 * 1024

// Resize changes the ring's capacity to newSizeKb kilobytes, preserving
// ids and bytes for every block that remains within the new live window.
//
// Grow: the entire current live window [SmallestLiveID, CurrentLength) is
// copied into a freshly sized file; every currently-live id keeps reading
// its original bytes.
//
// Shrink: only the suffix of the live window that still fits the smaller
// capacity is copied; ids that fall outside the new window become expired.
// CurrentLength is unchanged either way — only capacity and sizeKb change,
// and ids are never renumbered.
//
// The caller (CappedStore) is responsible for holding the store lock for
// the duration of Resize; FileRing performs no locking of its own.
func (r *FileRing) Resize(newSizeKb uint32) error {
	if newSizeKb == 0 {
		return ErrInvalidSize
	}
	newCapacity := uint64(newSizeKb) * 1024

	cl := r.currentLength
	oldSmallest := smallestLiveID(cl, r.capacity)
	newWantedSmallest := smallestLiveID(cl, newCapacity)
	copyStart := oldSmallest
	if newWantedSmallest > copyStart {
		copyStart = newWantedSmallest
	}
	copyLen := cl - copyStart

	tmpPath := r.path + ".resize.tmp"
	_ = r.fs.Remove(tmpPath)
	tmpFile, err := r.fs.OpenFile(tmpPath)
	if err != nil {
		return fmt.Errorf("ring: resize: open scratch file: %w", err)
	}
	if err := tmpFile.Truncate(int64(HeaderSize) + int64(newCapacity)); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("ring: resize: truncate scratch file: %w", err)
	}

	buf := make([]byte, min(uint64(resizeCopyChunk), max(copyLen, 1)))
	remaining := copyLen
	off := copyStart
	for remaining > 0 {
		n := uint64(len(buf))
		if n > remaining {
			n = remaining
		}
		chunk := buf[:n]
		if err := ringReadAt(r.readerFile, chunk, off, r.capacity); err != nil {
			_ = tmpFile.Close()
			return fmt.Errorf("ring: resize: read live window: %w", err)
		}
		if err := ringWriteAt(tmpFile, chunk, off, newCapacity); err != nil {
			_ = tmpFile.Close()
			return fmt.Errorf("ring: resize: write scratch file: %w", err)
		}
		off += n
		remaining -= n
	}

	h := header{currentLength: cl, sizeKb: newSizeKb}
	hbuf := h.encode()
	if _, err := tmpFile.WriteAt(hbuf[:], 0); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("ring: resize: write scratch header: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("ring: resize: close scratch file: %w", err)
	}

	if err := r.Close(); err != nil {
		return fmt.Errorf("ring: resize: close old handles: %w", err)
	}
	if err := r.fs.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("ring: resize: rename scratch file into place: %w", err)
	}

	writerFile, err := r.fs.OpenFile(r.path)
	if err != nil {
		return fmt.Errorf("ring: resize: reopen writer handle: %w", err)
	}
	readerFile, err := r.fs.OpenFile(r.path)
	if err != nil {
		_ = writerFile.Close()
		return fmt.Errorf("ring: resize: reopen reader handle: %w", err)
	}

	r.writerFile = writerFile
	r.readerFile = readerFile
	r.capacity = newCapacity
	r.sizeKb = newSizeKb
	return nil
}
