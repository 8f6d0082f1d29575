// Package trace provides a small debug Logger for writing internal step
// output to stderr when --debug is set. Every line is passed through
// redact.Secrets before writing so credentials never reach the log, even
// when it is captured in CI. No-op when the writer is nil.
package trace

import (
	"fmt"
	"io"

	"git-commitai/cli/internal/redact"
)

// Logger writes redacted debug lines. When the underlying writer is nil, all
// methods no-op.
type Logger struct {
	w io.Writer
}

// New returns a Logger that writes to w. If w is nil, all methods no-op.
func New(w io.Writer) *Logger {
	return &Logger{w: w}
}

// Enabled returns true if the logger has a non-nil writer.
func (l *Logger) Enabled() bool {
	return l != nil && l.w != nil
}

// Printf writes one "DEBUG: " line when enabled. The formatted message is
// redacted before it reaches the writer; callers may log header maps or
// config values without masking them first.
func (l *Logger) Printf(format string, args ...interface{}) {
	if !l.Enabled() {
		return
	}
	fmt.Fprintf(l.w, "DEBUG: %s\n", redact.Secrets(fmt.Sprintf(format, args...)))
}
