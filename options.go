package capring

import (
	"fmt"
	"time"

	"github.com/flightrecorder/capring/internal/codec"
	"github.com/flightrecorder/capring/internal/logging"
	"github.com/flightrecorder/capring/internal/vfs"
)

// Options configures Open. A nil *Options (or zero-valued fields within
// one) falls back to DefaultOptions's choices, mirroring how the reference
// stack's DefaultOptions seeds an Options struct before a database is
// opened. SizeKb is the exception: a zero SizeKb in a non-nil Options is
// not defaulted, and Open rejects it.
type Options struct {
	// FS is the filesystem the ring file is opened through. Default:
	// vfs.Default() (the real OS filesystem).
	FS vfs.FS

	// Logger receives warn-level diagnostics for header-flush and
	// shutdown-hook failures. The store never logs on the write/read hot
	// path. Default: a warn-level logger writing to os.Stderr.
	Logger logging.Logger

	// Compression selects the streaming codec used for every block.
	// Default: codec.Snappy.
	Compression codec.Type

	// SizeKb is the ring capacity in kilobytes. Must be positive.
	SizeKb uint32

	// FlushInterval is how often the header is persisted to disk. Must be
	// at least one second, matching the "no hot-path background work"
	// cadence this store is built to. Default: one second.
	FlushInterval time.Duration

	// Scheduler drives the periodic header flush. Default:
	// NewDefaultScheduler().
	Scheduler Scheduler

	// Clock is defaulted and carried in Options, but Open does not read it:
	// neither the store nor DefaultScheduler uses it, and it is not passed
	// to the Scheduler. Default: the wall clock.
	Clock Clock

	// OverwrittenResponse is returned in place of a block whose id has
	// expired by the time it's read. Default: "<expired>".
	OverwrittenResponse string

	// SyncOnFlush calls the backing file's Sync after every persisted
	// header, trading header-flush latency for a tighter crash-loss bound.
	// Off by default.
	SyncOnFlush bool
}

// DefaultOptions returns an Options populated with this store's defaults.
func DefaultOptions() *Options {
	return &Options{
		FS:                  vfs.Default(),
		Logger:              logging.OrDefault(nil),
		Compression:         codec.Snappy,
		SizeKb:              1024,
		FlushInterval:       time.Second,
		Scheduler:           NewDefaultScheduler(),
		Clock:               realClock{},
		OverwrittenResponse: "<expired>",
	}
}

// fillDefaults returns a copy of opts with every zero-valued field except
// SizeKb replaced by DefaultOptions's choice (SizeKb is left for validate to
// reject). A nil opts returns DefaultOptions() outright.
func fillDefaults(opts *Options) *Options {
	if opts == nil {
		return DefaultOptions()
	}
	filled := *opts
	if filled.FS == nil {
		filled.FS = vfs.Default()
	}
	if logging.IsNil(filled.Logger) {
		filled.Logger = logging.OrDefault(filled.Logger)
	}
	if !filled.Compression.IsSupported() {
		filled.Compression = codec.Snappy
	}
	if filled.FlushInterval == 0 {
		filled.FlushInterval = time.Second
	}
	if filled.Scheduler == nil {
		filled.Scheduler = NewDefaultScheduler()
	}
	if filled.Clock == nil {
		filled.Clock = realClock{}
	}
	if filled.OverwrittenResponse == "" {
		filled.OverwrittenResponse = "<expired>"
	}
	return &filled
}

// validate checks the fields Open can't silently default.
func (o *Options) validate() error {
	if o.SizeKb == 0 {
		return fmt.Errorf("%w: SizeKb must be positive", ErrInvalidArgument)
	}
	if o.FlushInterval < time.Second {
		return fmt.Errorf("%w: FlushInterval must be at least one second", ErrInvalidArgument)
	}
	return nil
}
