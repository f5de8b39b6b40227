// Package safego provides a panic-recovering goroutine launcher for
// fire-and-forget background work.
package safego

import "log/slog"

// Go launches fn in a new goroutine. A panic in fn is recovered and logged
// instead of crashing the process. Use it for background goroutines (stat
// samplers, event loops, side-channel servers) where an unrecovered panic
// would otherwise kill the goroutine, or the whole server, silently.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background goroutine", "panic", r)
			}
		}()
		fn()
	}()
}
