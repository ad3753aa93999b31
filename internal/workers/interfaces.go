// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface and a Workers aggregate that starts and
// stops multiple workers in a unified way.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
//
// Start is expected to launch the worker's goroutines and return; Stop must
// block until they have fully exited and be safe to call when the worker is
// not running.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}
