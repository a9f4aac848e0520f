// Package lock provides the two inter-process locks VelSave relies on: a
// lock file that keeps job runs one at a time, and a named system mutex that
// serialises writers of the daily event log.
package lock

import (
	"context"

	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("velsave.lock")

type Locker interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}
