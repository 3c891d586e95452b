package blockio

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/flightrecorder/capring/internal/codec"
)

func TestReaderYieldsOverwrittenResponseForExpiredID(t *testing.T) {
	r, locker := newTestRingAndLocker(t, 1) // capacity 1024
	w := NewWriter(r, codec.None)

	id, err := w.WriteBlock(strings.NewReader("first"))
	if err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	// Push currentLength far enough that id is no longer live.
	filler := bytes.Repeat([]byte{'z'}, 2000)
	if _, err := w.WriteBlock(bytes.NewReader(filler)); err != nil {
		t.Fatalf("WriteBlock filler: %v", err)
	}

	rd := NewReader(locker, r, id, codec.None, "EXPIRED")
	got, err := io.ReadAll(rd)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "EXPIRED" {
		t.Errorf("expired read = %q, want EXPIRED", got)
	}
}

func TestReaderYieldsOverwrittenResponseForFutureID(t *testing.T) {
	r, locker := newTestRingAndLocker(t, 1)
	rd := NewReader(locker, r, 999, codec.None, "NOPE")
	got, err := io.ReadAll(rd)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "NOPE" {
		t.Errorf("future-id read = %q, want NOPE", got)
	}
}

func TestReaderDetectsMidReadRollover(t *testing.T) {
	// The block must be bigger than the reader's internal buffer so the
	// first Read only drains the first buffered chunk, leaving a second
	// underlying read pending when the rollover happens.
	r, locker := newTestRingAndLocker(t, 128) // capacity 131072
	w := NewWriter(r, codec.None)

	payload := bytes.Repeat([]byte{'x'}, 50000)
	id, err := w.WriteBlock(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}

	rd := NewReader(locker, r, id, codec.None, "")
	buf := make([]byte, 10)
	if _, err := rd.Read(buf); err != nil {
		t.Fatalf("first Read: %v", err)
	}

	// Roll the ring over past id entirely before the stream finishes.
	filler := bytes.Repeat([]byte{'y'}, 200000)
	if _, err := w.WriteBlock(bytes.NewReader(filler)); err != nil {
		t.Fatalf("WriteBlock filler: %v", err)
	}

	_, err = io.ReadAll(rd)
	if !errors.Is(err, ErrRolledOverMidRead) {
		t.Fatalf("ReadAll after rollover = %v, want ErrRolledOverMidRead", err)
	}
}

func TestReaderReturnsErrClosedWhenStoreClosed(t *testing.T) {
	r, locker := newTestRingAndLocker(t, 1)
	w := NewWriter(r, codec.None)
	id, err := w.WriteBlock(strings.NewReader("data"))
	if err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}

	locker.closed = true
	rd := NewReader(locker, r, id, codec.None, "")
	if _, err := rd.Read(make([]byte, 4)); !errors.Is(err, ErrClosed) {
		t.Fatalf("Read on closed store = %v, want ErrClosed", err)
	}
}

func TestReaderCompressedRoundTripAcrossWrap(t *testing.T) {
	r, locker := newTestRingAndLocker(t, 1) // capacity 1024
	w := NewWriter(r, codec.Snappy)

	// Uncompressed filler moves the write head to 1008, so the compressed
	// block that follows crosses the 1024 wrap boundary.
	filler := bytes.Repeat([]byte{'f'}, 1000)
	if _, err := NewWriter(r, codec.None).WriteBlock(bytes.NewReader(filler)); err != nil {
		t.Fatalf("WriteBlock filler: %v", err)
	}

	payload := bytes.Repeat([]byte("profiler-trace-chunk"), 10)
	id, err := w.WriteBlock(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}

	rd := NewReader(locker, r, id, codec.Snappy, "")
	got, err := io.ReadAll(rd)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("compressed wrapped round trip mismatch")
	}
}
