// Package runid mints a per-instance debug tag — distinct from a plan's
// deterministic ID() — for a union.Stream, so concurrent runs of the same
// logical union are distinguishable in log lines. Grounded on the
// ulid.MustNew(ulid.Now(), rand.Reader) pattern the teacher's
// telemetry.go uses to tag device IDs and pending telemetry batches.
package runid

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New mints a fresh run tag, sortable by creation time to the millisecond
// and collision-resistant across processes; tags minted within the same
// millisecond have no defined order among themselves.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
