package encoding

import "testing"

func TestFixed32RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 255, 256, 1 << 20, 0xFFFFFFFF}
	buf := make([]byte, 4)
	for _, v := range cases {
		EncodeFixed32(buf, v)
		if got := DecodeFixed32(buf); got != v {
			t.Errorf("Fixed32 round trip: got %d, want %d", got, v)
		}
	}
}

func TestFixed64RoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 1 << 40, 1024 * 1024, 0xFFFFFFFFFFFFFFFF}
	buf := make([]byte, 8)
	for _, v := range cases {
		EncodeFixed64(buf, v)
		if got := DecodeFixed64(buf); got != v {
			t.Errorf("Fixed64 round trip: got %d, want %d", got, v)
		}
	}
}

func TestFixed32LittleEndian(t *testing.T) {
	buf := make([]byte, 4)
	EncodeFixed32(buf, 0x01020304)
	want := []byte{0x04, 0x03, 0x02, 0x01}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("byte %d: got %#x, want %#x", i, buf[i], want[i])
		}
	}
}
