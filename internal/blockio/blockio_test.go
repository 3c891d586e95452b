package blockio

import (
	"sync"
	"testing"

	"github.com/flightrecorder/capring/internal/ring"
	"github.com/flightrecorder/capring/internal/vfs"
)

// fakeLocker is a minimal Locker backing the tests: a real mutex plus a
// closed flag the test can flip to simulate store shutdown.
type fakeLocker struct {
	mu     sync.Mutex
	closed bool
}

func (f *fakeLocker) Lock()        { f.mu.Lock() }
func (f *fakeLocker) Unlock()      { f.mu.Unlock() }
func (f *fakeLocker) Closed() bool { return f.closed }

func newTestRingAndLocker(t *testing.T, sizeKb uint32) (*ring.FileRing, *fakeLocker) {
	t.Helper()
	fs := vfs.NewMemFS()
	r, err := ring.Open(fs, "ring.dat", sizeKb)
	if err != nil {
		t.Fatalf("ring.Open: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, &fakeLocker{}
}
