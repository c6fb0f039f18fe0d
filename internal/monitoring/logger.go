// Package monitoring holds the process-wide diagnostic logger. Pipeline code
// logs through Logf so tests can mute it and main can redirect it.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// verbose gates Debugf output.
var verbose bool

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbose enables or disables Debugf output.
func SetVerbose(v bool) {
	verbose = v
}

// Debugf logs through Logf only when verbose mode is on. Used for per-request
// and per-mirror diagnostics that are too chatty for steady-state operation.
func Debugf(format string, v ...interface{}) {
	if verbose {
		Logf(format, v...)
	}
}
