package errors

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"
)

// The handler is shared by the UI loop, HTTP handlers and the scenario
// watcher, which report concurrently.
var (
	handlerMu sync.RWMutex
	handler   ErrorHandler = &LogHandler{}
)

// SetHandler installs h as the global error handler and returns the one it
// replaces, so tests can restore it with defer SetHandler(SetHandler(h)).
// Passing nil installs a LogHandler on the logrus standard logger.
func SetHandler(h ErrorHandler) ErrorHandler {
	if h == nil {
		h = &LogHandler{}
	}
	handlerMu.Lock()
	defer handlerMu.Unlock()
	prev := handler
	handler = h
	return prev
}

// Handler returns the global error handler.
func Handler() ErrorHandler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return handler
}

// Report sends err to the global handler, stamping it if Timestamp is zero.
func Report(err *FixtureError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	Handler().HandleError(err)
}

// ReportPanic sends err to the global handler, stamping it if Timestamp is
// zero.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	Handler().HandlePanic(err)
}

// Recover reports a panic of the deferring function. It only works when
// deferred directly:
//
//	defer errors.Recover("platform.Loop")
func Recover(op string) {
	if r := recover(); r != nil {
		ReportPanic(panicError(op, r))
	}
}

// RecoverWithCallback is like Recover and then hands the panic value to
// callback, which typically turns it into the enclosing function's error.
func RecoverWithCallback(op string, callback func(r any)) {
	if r := recover(); r != nil {
		ReportPanic(panicError(op, r))
		if callback != nil {
			callback(r)
		}
	}
}

func panicError(op string, r any) *PanicError {
	return &PanicError{
		Op:         op,
		Value:      r,
		StackTrace: CaptureStack(),
		Timestamp:  time.Now(),
	}
}

const packagePath = "github.com/go-drift/e2e/pkg/errors."

// helperFrames are left out of captured stacks.
var helperFrames = map[string]bool{
	packagePath + "CaptureStack":        true,
	packagePath + "panicError":          true,
	packagePath + "Recover":             true,
	packagePath + "RecoverWithCallback": true,
}

// CaptureStack returns the calling goroutine's stack as "function\n\tfile:line"
// lines. Runtime frames and this package's recovery helpers are omitted, so a
// stack captured while recovering starts at the panic site.
func CaptureStack() string {
	const maxDepth = 48
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		if !helperFrames[frame.Function] && !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return sb.String()
}
