package blockio

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/flightrecorder/capring/internal/codec"
)

func TestWriteReadRoundTrip(t *testing.T) {
	for _, typ := range []codec.Type{codec.None, codec.Snappy, codec.Zstd, codec.LZ4} {
		t.Run(typ.String(), func(t *testing.T) {
			r, locker := newTestRingAndLocker(t, 64)
			w := NewWriter(r, typ)

			payload := "the quick brown fox jumps over the lazy dog"
			id, err := w.WriteBlock(strings.NewReader(payload))
			if err != nil {
				t.Fatalf("WriteBlock: %v", err)
			}

			rd := NewReader(locker, r, id, typ, "OVERWRITTEN")
			got, err := io.ReadAll(rd)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if string(got) != payload {
				t.Errorf("round trip = %q, want %q", got, payload)
			}
		})
	}
}

func TestWriteBlockAdvancesByCompressedLength(t *testing.T) {
	r, _ := newTestRingAndLocker(t, 64)
	w := NewWriter(r, codec.None)

	payload := bytes.Repeat([]byte{'a'}, 100)
	before := r.CurrentLength()
	if _, err := w.WriteBlock(bytes.NewReader(payload)); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	after := r.CurrentLength()
	if want := before + LengthPrefixSize + uint64(len(payload)); after != want {
		t.Errorf("CurrentLength after write = %d, want %d", after, want)
	}
}

func TestWriteBlockIdsAreMonotonic(t *testing.T) {
	r, _ := newTestRingAndLocker(t, 64)
	w := NewWriter(r, codec.Snappy)

	var last uint64
	for i := 0; i < 5; i++ {
		id, err := w.WriteBlock(strings.NewReader("payload"))
		if err != nil {
			t.Fatalf("WriteBlock: %v", err)
		}
		if i > 0 && id <= last {
			t.Errorf("block %d: id %d not > previous id %d", i, id, last)
		}
		last = id
	}
}

func TestWriteBlockAcrossWrap(t *testing.T) {
	r, locker := newTestRingAndLocker(t, 1) // capacity 1024
	w := NewWriter(r, codec.None)

	// Fill close to the wrap boundary first.
	filler := bytes.Repeat([]byte{'f'}, 1000)
	if _, err := w.WriteBlock(bytes.NewReader(filler)); err != nil {
		t.Fatalf("WriteBlock filler: %v", err)
	}

	payload := bytes.Repeat([]byte{'w'}, 100)
	id, err := w.WriteBlock(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("WriteBlock wrap: %v", err)
	}

	rd := NewReader(locker, r, id, codec.None, "")
	got, err := io.ReadAll(rd)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("wrapped block round trip mismatch")
	}
}
