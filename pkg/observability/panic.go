package observability

import (
	"runtime/debug"
)

// RecoverPanic recovers from a panic and logs it with the stack trace.
// Call it in a defer. The panic is not re-raised, so the surrounding
// goroutine keeps the process alive; use it around work that must not
// take the server down, like manifest reloads and scheduled jobs.
func RecoverPanic(logger *Logger, operation string) {
	if r := recover(); r != nil {
		logger.WithField("panic", r).
			WithField("stack", string(debug.Stack())).
			WithField("operation", operation).
			Error("Panic recovered")
	}
}
