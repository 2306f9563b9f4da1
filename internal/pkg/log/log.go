package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
)

type ctxKey string

const contextKeyRequestID ctxKey = "request_id"

// Level is the minimum severity that gets printed
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(LevelInfo))
}

// ParseLevel maps a LOG_LEVEL string to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "verbose":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLevel sets the process-wide minimum level
func SetLevel(l Level) {
	currentLevel.Store(int32(l))
}

// GetLevel returns the process-wide minimum level
func GetLevel() Level {
	return Level(currentLevel.Load())
}

func enabled(l Level) bool {
	return l >= GetLevel()
}

// WithRequestID adds request ID to context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// RequestIDFromContext retrieves request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// formatLog prefixes the message with the request ID when there is one.
// The coloured level tag is printed by the caller.
func formatLog(requestID string, format string, a ...interface{}) string {
	msg := fmt.Sprintf(format, a...)
	if requestID != "" {
		return fmt.Sprintf("[req_id=%s] %s", requestID, msg)
	}
	return msg
}

// Debug log debug information
func Debug(format string, a ...interface{}) {
	if !enabled(LevelDebug) {
		return
	}
	debug := color.New(color.FgCyan).SprintFunc()
	fmt.Printf("%s ", debug("[DEBUG]"))
	fmt.Printf(format, a...)
	fmt.Println()
}

// DebugWithContext logs debug information with the request ID from ctx
func DebugWithContext(ctx context.Context, format string, a ...interface{}) {
	if !enabled(LevelDebug) {
		return
	}
	msg := formatLog(RequestIDFromContext(ctx), format, a...)
	debug := color.New(color.FgCyan).SprintFunc()
	fmt.Printf("%s ", debug("[DEBUG]"))
	fmt.Println(msg)
}

// Info log information
func Info(format string, a ...interface{}) {
	if !enabled(LevelInfo) {
		return
	}
	info := color.New(color.FgWhite, color.BgGreen).SprintFunc()
	fmt.Printf("%s ", info("[INFO] "))
	fmt.Printf(format, a...)
	fmt.Println()
}

// InfoWithContext logs information with context (includes request ID if available)
func InfoWithContext(ctx context.Context, format string, a ...interface{}) {
	if !enabled(LevelInfo) {
		return
	}
	msg := formatLog(RequestIDFromContext(ctx), format, a...)
	info := color.New(color.FgWhite, color.BgGreen).SprintFunc()
	fmt.Printf("%s ", info("[INFO] "))
	fmt.Println(msg)
}

// Warn log warning
func Warn(format string, a ...interface{}) {
	if !enabled(LevelWarn) {
		return
	}
	warn := color.New(color.FgWhite, color.BgYellow).SprintFunc()
	fmt.Printf("%s ", warn("[WARN] "))
	fmt.Printf(format, a...)
	fmt.Println()
}

// WarnWithContext logs warning with context (includes request ID if available)
func WarnWithContext(ctx context.Context, format string, a ...interface{}) {
	if !enabled(LevelWarn) {
		return
	}
	msg := formatLog(RequestIDFromContext(ctx), format, a...)
	warn := color.New(color.FgWhite, color.BgYellow).SprintFunc()
	fmt.Printf("%s ", warn("[WARN] "))
	fmt.Println(msg)
}

// Error log error
func Error(format string, a ...interface{}) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Printf("%s ", red("[Error]"))
	fmt.Printf(format, a...)
	fmt.Println()
}

// ErrorWithContext logs error with context (includes request ID if available)
func ErrorWithContext(ctx context.Context, format string, a ...interface{}) {
	msg := formatLog(RequestIDFromContext(ctx), format, a...)
	red := color.New(color.FgRed).SprintFunc()
	fmt.Printf("%s ", red("[Error]"))
	fmt.Println(msg)
}

// dumpOutput receives DumpDebug output
var dumpOutput io.Writer = os.Stdout

// DumpDebug prints label followed by a deep dump of values at debug level
func DumpDebug(label string, a ...interface{}) {
	if !enabled(LevelDebug) {
		return
	}
	debug := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(dumpOutput, "%s %s\n%s", debug("[DEBUG]"), label, spew.Sdump(a...))
}
