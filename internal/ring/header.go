// Package ring implements FileRing: the fixed-size circular file that backs
// the capped block store.
//
// File Format (bit-exact, little-endian):
//
//	+-------------------------+-------------------------------------------+
//	| header (HeaderSize=20B) | ring (sizeKb*1024 bytes, wraps modulo cap) |
//	+-------------------------+-------------------------------------------+
//
// Header:
//
//	+------------------+----------------+------------------+
//	| currentLength(8) | sizeKb(4)      | reserved(8, zero)|
//	+------------------+----------------+------------------+
//
// currentLength is the total number of bytes ever written to the ring; the
// write head sits at currentLength mod capacity. sizeKb*1024 is the ring
// capacity in bytes. Reserved bytes are zero-filled padding, carried so a
// future format revision has room to grow the header without relocating the
// ring.
package ring

import "github.com/flightrecorder/capring/internal/encoding"

// HeaderSize is the fixed size, in bytes, of the file header preceding the
// ring region. Bit-exact; do not change.
const HeaderSize = 20

// header is the in-memory mirror of the on-disk header.
type header struct {
	currentLength uint64
	sizeKb        uint32
}

// encode serializes the header into a HeaderSize-byte buffer.
func (h header) encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	encoding.EncodeFixed64(buf[0:8], h.currentLength)
	encoding.EncodeFixed32(buf[8:12], h.sizeKb)
	// buf[12:20] stays zero (reserved).
	return buf
}

// decodeHeader parses a HeaderSize-byte buffer into a header.
func decodeHeader(buf []byte) header {
	return header{
		currentLength: encoding.DecodeFixed64(buf[0:8]),
		sizeKb:        encoding.DecodeFixed32(buf[8:12]),
	}
}
