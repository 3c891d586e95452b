package blockio

import (
	"fmt"
	"io"

	"github.com/flightrecorder/capring/internal/codec"
	"github.com/flightrecorder/capring/internal/encoding"
	"github.com/flightrecorder/capring/internal/ring"
)

// Writer streams a byte source onto a ring as a single length-prefixed,
// compressed block. The caller must already hold the store's lock for the
// duration of WriteBlock; Writer does no locking of its own, mirroring how
// FileRing leaves serialization to its owner.
type Writer struct {
	ring *ring.FileRing
	typ  codec.Type
}

// NewWriter returns a Writer that compresses blocks with typ before framing
// them onto r.
func NewWriter(r *ring.FileRing, typ codec.Type) *Writer {
	return &Writer{ring: r, typ: typ}
}

// sink is the io.Writer the compressor streams onto: it appends bytes to
// the ring immediately following a block's reserved length prefix, tracking
// how many compressed bytes have been written so far.
type sink struct {
	ring    *ring.FileRing
	blockID uint64
	written uint64
}

func (s *sink) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := s.ring.WriteRing(p, s.blockID+LengthPrefixSize+s.written); err != nil {
		return 0, err
	}
	s.written += uint64(len(p))
	return len(p), nil
}

// WriteBlock reserves a length slot, streams src through the configured
// compressor directly onto the ring, and backfills the real compressed
// length once the compressor has flushed its trailing frame. It returns the
// id the block can later be read back with.
//
// On any failure the write head is not advanced: the partially written bytes
// are left in place but are unreachable, since no id claims them and the
// next successful WriteBlock will overwrite them before they could be read.
func (w *Writer) WriteBlock(src io.Reader) (uint64, error) {
	id := w.ring.CurrentLength()

	s := &sink{ring: w.ring, blockID: id}
	compressor, err := codec.NewCompressor(w.typ, s)
	if err != nil {
		return 0, fmt.Errorf("blockio: new compressor: %w", err)
	}

	if _, err := io.Copy(compressor, src); err != nil {
		_ = compressor.Close()
		return 0, fmt.Errorf("blockio: compress block: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return 0, fmt.Errorf("blockio: flush block: %w", err)
	}

	var lenBuf [LengthPrefixSize]byte
	encoding.EncodeFixed64(lenBuf[:], s.written)
	if err := w.ring.WriteRing(lenBuf[:], id); err != nil {
		return 0, fmt.Errorf("blockio: write length prefix: %w", err)
	}

	w.ring.AdvanceWriteHead(LengthPrefixSize + s.written)
	return id, nil
}
