// Package lifecycle holds the process drain flag shared between the signal
// handler and the health endpoint.
package lifecycle

import "sync/atomic"

var shuttingDown atomic.Bool

// SetShuttingDown sets the shutdown flag. Call when SIGTERM/SIGINT is
// received; the health handler reports shutting-down with 503 while true so
// load balancers stop routing new traffic here.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}
