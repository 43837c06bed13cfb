// Package logger provides structured, leveled logging for ARF.
//
// It supports the usual severity hierarchy (TRACE, DEBUG, INFO, WARN,
// ERROR) plus subsystem-gated trace output so a caller chasing a mapper or
// occlusion bug can enable verbose logging for just that subsystem without
// drowning in storage-layer noise.
//
// Log line format:
//
//	YYYY/MM/DD HH:MM:SS.ssssss [LEVEL] message (func.file:line)
package logger

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level is the severity of a log message.
type Level int32

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	TRACE: "TRACE",
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var (
	currentLevel atomic.Int32

	subsystemMu sync.RWMutex
	subsystems  = make(map[string]bool)

	out sync.Mutex
)

func init() {
	currentLevel.Store(int32(INFO))
}

// SetLevel sets the minimum level that will be emitted.
func SetLevel(l Level) { currentLevel.Store(int32(l)) }

// GetLevel returns the current minimum level.
func GetLevel() Level { return Level(currentLevel.Load()) }

// EnableSubsystem turns on TraceIf output for the named subsystem.
func EnableSubsystem(name string) {
	subsystemMu.Lock()
	defer subsystemMu.Unlock()
	subsystems[name] = true
}

// DisableSubsystem turns off TraceIf output for the named subsystem.
func DisableSubsystem(name string) {
	subsystemMu.Lock()
	defer subsystemMu.Unlock()
	delete(subsystems, name)
}

func subsystemEnabled(name string) bool {
	subsystemMu.RLock()
	defer subsystemMu.RUnlock()
	return subsystems[name]
}

func callerInfo(skip int) string {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "?:0"
	}
	fn := runtime.FuncForPC(pc)
	name := "?"
	if fn != nil {
		parts := strings.Split(fn.Name(), ".")
		name = parts[len(parts)-1]
	}
	short := file
	if idx := strings.LastIndex(file, "/"); idx >= 0 {
		short = file[idx+1:]
	}
	return fmt.Sprintf("%s.%s:%d", name, short, line)
}

func logf(l Level, skip int, format string, args ...any) {
	if l < GetLevel() {
		return
	}
	msg := fmt.Sprintf(format, args...)
	now := time.Now()
	out.Lock()
	defer out.Unlock()
	fmt.Fprintf(os.Stderr, "%s [%s] %s (%s)\n",
		now.Format("2006/01/02 15:04:05.000000"),
		levelNames[l], msg, callerInfo(skip+1))
}

func Trace(format string, args ...any) { logf(TRACE, 2, format, args...) }
func Debug(format string, args ...any) { logf(DEBUG, 2, format, args...) }
func Info(format string, args ...any)  { logf(INFO, 2, format, args...) }
func Warn(format string, args ...any)  { logf(WARN, 2, format, args...) }
func Error(format string, args ...any) { logf(ERROR, 2, format, args...) }

// TraceIf emits a TRACE-level message only if the named subsystem has been
// enabled via EnableSubsystem. This mirrors the teacher's subsystem-scoped
// tracing so verbose output can be targeted at one ARF layer at a time.
func TraceIf(subsystem, format string, args ...any) {
	if !subsystemEnabled(subsystem) {
		return
	}
	logf(TRACE, 2, "["+subsystem+"] "+format, args...)
}

// WithInstance returns a logging function bound to an instance id, used by
// the indexer to tag every line it emits so multiple ARF instances in one
// process remain distinguishable.
func WithInstance(instanceID string) func(level Level, format string, args ...any) {
	return func(level Level, format string, args ...any) {
		logf(level, 2, "[instance:%s] "+format, append([]any{instanceID}, args...)...)
	}
}
