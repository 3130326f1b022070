// Package engineerr holds the error kinds of §7: sentinel errors callers
// can match with errors.Is, wrapped with context by the usual
// pkg/errors (planning-time code) or fmt.Errorf %w (concurrency code)
// idioms used elsewhere in this module.
package engineerr

import "errors"

var (
	// Logical is a contract violation by the caller: add after project,
	// read_suffix before end-of-stream, empty chain access, a
	// prerequisite cycle, an empty ArrayJoin, mismatched ArrayJoin
	// lengths. Fatal, surfaced to the caller.
	Logical = errors.New("logical error")

	// TypeMismatch is a function whose argument types are incompatible
	// with its signature at plan time.
	TypeMismatch = errors.New("type error")

	// ResourceLimit is a block that exceeds a configured limit.
	ResourceLimit = errors.New("resource limit exceeded")

	// Cancelled marks a stream torn down via cancellation rather than a
	// clean drain.
	Cancelled = errors.New("cancelled")
)
