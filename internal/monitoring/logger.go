// Package monitoring holds the process-wide diagnostic logging hook shared
// by the localization packages.
package monitoring

import "log"

// Logf is the package-level diagnostic logger, defaulting to log.Printf.
// The daemon leaves it in place; tests usually mute it with Mute.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger, equivalent to Mute.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Mute()
		return
	}
	Logf = f
}

// Mute silences diagnostic output until SetLogger is called again.
func Mute() {
	Logf = func(string, ...any) {}
}
