package capring

import "io"

// CharSource is a producer-supplied byte stream for Write. Go's []byte and
// string are UTF-8 native, so no separate character encoding step is
// needed: a CharSource's bytes are streamed straight through the
// compressor.
//
// A CharSource is single-shot: if WriteBlock fails partway through, the
// caller must supply a fresh CharSource to retry rather than expecting the
// same one to be rewound.
type CharSource = io.Reader
