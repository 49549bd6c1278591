package logging

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Recover logs a panic in the calling goroutine with its stack and stops
// it from unwinding further. It must be deferred directly:
//
//	defer logging.Recover(log, "connection handler", "conn", id)
func Recover(l *slog.Logger, where string, args ...any) {
	v := recover()
	if v == nil {
		return
	}
	if l == nil {
		l = slog.Default()
	}
	args = append(args,
		slog.String("where", where),
		slog.String("panic", fmt.Sprint(v)),
		slog.String("stack", string(debug.Stack())),
	)
	l.Error("recovered panic", args...)
}
