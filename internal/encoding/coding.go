// Package encoding provides the fixed-width little-endian integer encoding
// used by the ring store's on-disk format: the header's currentLength/sizeKb
// fields and each block's 8-byte length prefix.
//
// The wire format is pinned to little-endian regardless of host
// architecture, so these helpers always go through encoding/binary's
// LittleEndian byte order rather than native struct layout.
package encoding

import "encoding/binary"

// EncodeFixed32 encodes a uint32 into a 4-byte little-endian buffer.
// REQUIRES: dst has at least 4 bytes.
func EncodeFixed32(dst []byte, value uint32) {
	binary.LittleEndian.PutUint32(dst, value)
}

// DecodeFixed32 decodes a uint32 from a 4-byte little-endian buffer.
// REQUIRES: src has at least 4 bytes.
func DecodeFixed32(src []byte) uint32 {
	return binary.LittleEndian.Uint32(src)
}

// EncodeFixed64 encodes a uint64 into an 8-byte little-endian buffer.
// REQUIRES: dst has at least 8 bytes.
func EncodeFixed64(dst []byte, value uint64) {
	binary.LittleEndian.PutUint64(dst, value)
}

// DecodeFixed64 decodes a uint64 from an 8-byte little-endian buffer.
// REQUIRES: src has at least 8 bytes.
func DecodeFixed64(src []byte) uint64 {
	return binary.LittleEndian.Uint64(src)
}
