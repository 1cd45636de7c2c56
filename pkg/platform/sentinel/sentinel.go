package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and services translate them into domain errors:
//   - ErrNotFound: key does not exist
//   - ErrAlreadyUsed: key is already taken on insert
//   - ErrInvalidState: record is in the wrong state for the write
//   - ErrUnavailable: backend temporarily unreachable
//
// Validation failures use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
