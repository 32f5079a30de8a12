// -----------------------------------------------------------------------
// Safe Goroutine - Panic-protected goroutine wrappers
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"runtime"

	"github.com/ternarybob/arbor"
)

// SafeGo runs a function in a goroutine with panic recovery.
// Panics are logged but don't crash the service.
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	go func() {
		defer recoverAndLog(logger, name)
		fn()
	}()
}

// Guard runs fn synchronously and converts a panic into an error.
func Guard(logger arbor.ILogger, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Error().
					Str("stage", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", stackTrace()).
					Msg("Recovered from panic")
			}
			err = fmt.Errorf("%s: panic: %v", name, r)
		}
	}()
	return fn()
}

func recoverAndLog(logger arbor.ILogger, name string) {
	r := recover()
	if r == nil {
		return
	}

	trace := stackTrace()
	if logger != nil {
		logger.Error().
			Str("goroutine", name).
			Str("panic", fmt.Sprintf("%v", r)).
			Str("stack", trace).
			Msg("Recovered from panic in goroutine - continuing service operation")
	} else {
		fmt.Fprintf(os.Stderr, "PANIC in goroutine %s: %v\n%s\n", name, r, trace)
	}
}

func stackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
