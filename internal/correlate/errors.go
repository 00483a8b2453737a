package correlate

import "errors"

var (
	// ErrNotFound indicates no record exists under the requested key.
	ErrNotFound = errors.New("correlation record not found")
)
