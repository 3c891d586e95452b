package capring

import (
	"errors"

	"github.com/flightrecorder/capring/internal/blockio"
)

// ErrClosed surfaces from Read streams when the store is closed or closing.
// Resize on a closed store is a no-op that returns nil. Write does not
// return an error; it signals closure with the -1 id sentinel instead.
var ErrClosed = blockio.ErrClosed

// ErrInvalidArgument is returned by Open and Resize for non-positive sizes.
// Unknown block ids are deliberately not an error: ids outside
// [0, currentLength) are simply treated as overwritten.
var ErrInvalidArgument = errors.New("capring: invalid argument")

// ErrRolledOverMidRead is raised by a Read stream when the writer advances
// past the block's tail while it is being consumed. Not retryable.
var ErrRolledOverMidRead = blockio.ErrRolledOverMidRead
