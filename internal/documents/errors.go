package documents

import "errors"

// Per-file load errors. Both are absorbed by the loader: the offending file
// is skipped and the load continues with the remaining files.
var (
	// ErrUnsupportedFormat indicates a file whose extension is not handled.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrUnreadableFile indicates a file that exists but could not be read
	// or parsed (I/O error, malformed CSV, corrupt PDF).
	ErrUnreadableFile = errors.New("unreadable file")
)
