package index

import "errors"

// ErrIndexCorrupted reports an index whose on-disk state cannot be trusted:
// an unreadable or inconsistent manifest. Callers treat it as a cache miss
// and rebuild rather than failing the request.
var ErrIndexCorrupted = errors.New("vector index corrupted")
