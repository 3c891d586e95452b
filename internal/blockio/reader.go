package blockio

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/flightrecorder/capring/internal/codec"
	"github.com/flightrecorder/capring/internal/encoding"
	"github.com/flightrecorder/capring/internal/ring"
)

// source is the io.Reader a Reader's bufio layer pulls from. Every call
// takes the store lock, re-checks that the block hasn't rolled over since
// the stream was opened, and performs exactly one ring-bounded read.
type source struct {
	locker  Locker
	ring    *ring.FileRing
	blockID uint64
	length  uint64
	offset  uint64
}

func (s *source) Read(p []byte) (int, error) {
	s.locker.Lock()
	defer s.locker.Unlock()

	if s.locker.Closed() {
		return 0, ErrClosed
	}
	if s.ring.IsOverwritten(s.blockID) {
		return 0, ErrRolledOverMidRead
	}
	if s.offset >= s.length {
		return 0, io.EOF
	}

	remaining := s.length - s.offset
	n := uint64(len(p))
	if n > remaining {
		n = remaining
	}
	pos := s.blockID + LengthPrefixSize + s.offset
	if untilWrap := s.ring.Capacity() - pos%s.ring.Capacity(); n > untilWrap {
		n = untilWrap
	}
	buf := p[:n]
	if err := s.ring.ReadRing(buf, pos); err != nil {
		return 0, err
	}
	s.offset += n
	return int(n), nil
}

// Reader streams a previously written block back out, decompressing as it
// goes. Unlike Writer, Reader is long-lived across many Read calls spread
// out in time, so it takes the store lock per underlying ring access rather
// than once for its whole lifetime.
type Reader struct {
	locker              Locker
	ring                *ring.FileRing
	id                  uint64
	typ                 codec.Type
	overwrittenResponse string

	once   sync.Once
	openErr error
	body   io.ReadCloser
}

// NewReader returns a Reader for the block identified by id. If id is
// already overwritten by the time the stream is read, Read yields
// overwrittenResponse instead of an error.
func NewReader(locker Locker, r *ring.FileRing, id uint64, typ codec.Type, overwrittenResponse string) *Reader {
	return &Reader{locker: locker, ring: r, id: id, typ: typ, overwrittenResponse: overwrittenResponse}
}

func (br *Reader) ensureOpen() error {
	br.once.Do(func() {
		br.locker.Lock()
		defer br.locker.Unlock()

		if br.locker.Closed() {
			br.openErr = ErrClosed
			return
		}
		if br.ring.IsOverwritten(br.id) {
			br.body = io.NopCloser(strings.NewReader(br.overwrittenResponse))
			return
		}

		var lenBuf [LengthPrefixSize]byte
		if err := br.ring.ReadRing(lenBuf[:], br.id); err != nil {
			br.openErr = fmt.Errorf("blockio: read length prefix: %w", err)
			return
		}
		length := encoding.DecodeFixed64(lenBuf[:])

		src := &source{locker: br.locker, ring: br.ring, blockID: br.id, length: length}
		buffered := bufio.NewReaderSize(src, minReadBufferSize)

		dec, err := codec.NewDecompressor(br.typ, buffered)
		if err != nil {
			br.openErr = fmt.Errorf("blockio: new decompressor: %w", err)
			return
		}
		br.body = dec
	})
	return br.openErr
}

// Read implements io.Reader. The first call opens the stream, checking
// liveness and reading the block header under the store lock; subsequent
// reads flow through the buffered, ring-bounded source.
func (br *Reader) Read(p []byte) (int, error) {
	if err := br.ensureOpen(); err != nil {
		return 0, err
	}
	return br.body.Read(p)
}

// Close releases the underlying decompressor.
func (br *Reader) Close() error {
	if err := br.ensureOpen(); err != nil {
		return nil
	}
	return br.body.Close()
}
