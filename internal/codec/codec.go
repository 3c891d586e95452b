// Package codec provides the streaming block compressor/decompressor used
// by the ring store's BlockWriter and BlockReader.
//
// Unlike a whole-block compression API (compress a []byte, get a []byte
// back), every codec here is wired through its *streaming* Writer/Reader
// API so that compression work is interleaved with ring I/O: the writer
// never needs the full uncompressed block in memory, and the reader never
// needs the full compressed block in memory. Each codec's own framing is
// self-terminating, so decompression stops cleanly once the underlying
// ring-bounded reader runs out of the recorded blockLength bytes — no
// separate uncompressed-size field is needed in the on-disk format.
//
// Reference: the compression algorithm selection and library choices are
// carried over from a RocksDB-compatible storage engine's block
// compression layer (util/compression.h/.cc), adapted from whole-block
// compression to streaming compression.
package codec

import (
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies a streaming compression algorithm.
type Type uint8

const (
	// Snappy is the default codec, and the zero value of Type: low CPU
	// cost, good fit for frequent, small profiler trace blocks on the
	// write hot path.
	Snappy Type = iota

	// None stores payload bytes uncompressed. Useful for debugging and
	// golden-file tests where byte-for-byte disk content matters.
	None

	// Zstd trades CPU for a better compression ratio; useful when ring
	// density matters more than write latency.
	Zstd

	// LZ4 is a third point on the speed/ratio curve.
	LZ4
)

// String returns the human-readable name of the codec.
func (t Type) String() string {
	switch t {
	case None:
		return "None"
	case Snappy:
		return "Snappy"
	case Zstd:
		return "Zstd"
	case LZ4:
		return "LZ4"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// IsSupported returns true if the codec type is recognized.
func (t Type) IsSupported() bool {
	switch t {
	case None, Snappy, Zstd, LZ4:
		return true
	default:
		return false
	}
}

// NewCompressor returns a streaming compressing writer over dst. The
// caller MUST call Close to flush trailing framing before trusting the
// byte count written to dst.
func NewCompressor(t Type, dst io.Writer) (io.WriteCloser, error) {
	switch t {
	case None:
		return nopWriteCloser{dst}, nil

	case Snappy:
		return snappy.NewBufferedWriter(dst), nil

	case Zstd:
		enc, err := zstd.NewWriter(dst)
		if err != nil {
			return nil, fmt.Errorf("codec: zstd writer: %w", err)
		}
		return enc, nil

	case LZ4:
		w := lz4.NewWriter(dst)
		return w, nil

	default:
		return nil, fmt.Errorf("codec: unsupported compression type: %s", t)
	}
}

// NewDecompressor returns a streaming decompressing reader over src. The
// returned reader stops decoding once src is exhausted; src is expected to
// be bounded to exactly the compressed byte count recorded on disk.
func NewDecompressor(t Type, src io.Reader) (io.ReadCloser, error) {
	switch t {
	case None:
		return io.NopCloser(src), nil

	case Snappy:
		return io.NopCloser(snappy.NewReader(src)), nil

	case Zstd:
		dec, err := zstd.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("codec: zstd reader: %w", err)
		}
		return zstdReadCloser{dec}, nil

	case LZ4:
		return io.NopCloser(lz4.NewReader(src)), nil

	default:
		return nil, fmt.Errorf("codec: unsupported compression type: %s", t)
	}
}

// nopWriteCloser adapts an io.Writer that needs no flush/close step.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// zstdReadCloser adapts *zstd.Decoder (whose Close has no error return) to
// io.ReadCloser.
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}
