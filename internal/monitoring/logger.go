// Package monitoring holds the process-wide diagnostic logger used by the
// extraction pipeline and its collaborators.
package monitoring

import "log"

// Logf is the package-level logger. It defaults to log.Printf; callers that
// need to redirect or silence output replace it via SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. A nil argument installs a no-op
// logger, which is useful for keeping test output quiet.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Quiet silences the package logger and returns a function that restores the
// previous logger. Intended for use as `defer monitoring.Quiet()()` in tests.
func Quiet() func() {
	prev := Logf
	SetLogger(nil)
	return func() { Logf = prev }
}
