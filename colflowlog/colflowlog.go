// Package colflowlog is a thin wrapper over the standard library's log
// package, matching the teacher's own logs package: a package-level
// *log.Logger, no external logging framework. union uses it to log and
// swallow secondary teardown errors (§5, §7) so a destructor-time failure
// never masks the primary error already raised to the caller.
package colflowlog

import (
	"log"
	"os"
)

// Logger is the package-level logger every caller writes through,
// matching the teacher's logs.Output pattern.
var Logger = log.New(os.Stderr, "colflow: ", log.LstdFlags)

// SwallowTeardownError logs err with context and discards it, used where a
// secondary failure during teardown must not mask the primary one already
// surfaced to the caller.
func SwallowTeardownError(context string, err error) {
	if err == nil {
		return
	}
	Logger.Printf("%s: %v", context, err)
}
