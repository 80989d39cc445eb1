// Package diag is the ambient logging layer. The core never reaches for a
// structured-logging framework; like the teacher repo's diagnosticLogger,
// it wraps the stdlib *log.Logger with a per-subsystem prefix and leveled
// helper methods. Transport/CLI layers may redirect the output writer;
// the core only ever logs through this thin wrapper.
package diag

import (
	"io"
	"log"
	"os"
	"sync"
)

// Level controls which leveled helpers actually write.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Logger is a per-subsystem logger: one instance per layer (discovery,
// structural, resolve, taint, graphstore, query, retrieval, orchestrator),
// matching the teacher's one-diagnosticLogger-per-concern convention.
type Logger struct {
	mu     sync.Mutex
	level  Level
	std    *log.Logger
	subsys string
}

// New creates a Logger for subsys writing to w at the given level. Passing
// a nil writer defaults to os.Stderr.
func New(subsys string, level Level, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		level:  level,
		std:    log.New(w, "["+subsys+"] ", log.LstdFlags|log.Lmicroseconds),
		subsys: subsys,
	}
}

// Discard is a Logger that drops everything, for tests that don't want
// diagnostic noise but still need a non-nil Logger to pass around.
func Discard() *Logger {
	return New("discard", LevelError, io.Discard)
}

func (l *Logger) logf(lvl Level, prefix, format string, args ...interface{}) {
	if lvl > l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.std.Printf(prefix+" "+format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) { l.logf(LevelError, "ERROR", format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.logf(LevelWarn, "WARN", format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.logf(LevelInfo, "INFO", format, args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.logf(LevelDebug, "DEBUG", format, args...) }

// WithSubsystem returns a child logger sharing the same writer/level but
// tagged with an additional subsystem suffix, used when an orchestrator
// layer wants to namespace per-file diagnostics (e.g. "orchestrator.parse").
func (l *Logger) WithSubsystem(suffix string) *Logger {
	return New(l.subsys+"."+suffix, l.level, l.std.Writer())
}
