package seqsrc

import "v.io/x/lib/vlog"

// VLogLogger is the default Logger, backed by v.io/x/lib/vlog's
// Infof-driven progress reporting.
type VLogLogger struct{}

// Notify implements Logger.
func (VLogLogger) Notify(format string, args ...interface{}) {
	vlog.Infof(format, args...)
}

// NopLogger discards every notification; useful for tests and library
// callers that don't want vlog's global flag state involved.
type NopLogger struct{}

// Notify implements Logger.
func (NopLogger) Notify(format string, args ...interface{}) {}
