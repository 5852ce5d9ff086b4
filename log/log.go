// Package log provides the structured, per-module logger used across the
// sync engine, transaction logic, and worker coordinator.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
)

// Module identifies the subsystem a logger was created for. Kept as a
// distinct type (rather than a bare string) so callers can't typo a module
// name past the compiler.
type Module string

const (
	Ledger       Module = "LEDGER"
	Transaction  Module = "TXN"
	SyncEngine   Module = "SYNC"
	SnarkWorker  Module = "WORKER"
	Stats        Module = "STATS"
	MetricsModul Module = "METRICS"
)

// Level is a log verbosity level, ordered from most to least severe.
type Level int

const (
	LvlCrit Level = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Level) String() string {
	switch l {
	case LvlCrit:
		return "CRIT"
	case LvlError:
		return "ERROR"
	case LvlWarn:
		return "WARN"
	case LvlInfo:
		return "INFO"
	case LvlDebug:
		return "DEBUG"
	case LvlTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

var levelColor = map[Level]color.Attribute{
	LvlCrit:  color.FgMagenta,
	LvlError: color.FgRed,
	LvlWarn:  color.FgYellow,
	LvlInfo:  color.FgGreen,
	LvlDebug: color.FgCyan,
	LvlTrace: color.FgWhite,
}

// Logger is the interface every module logger satisfies.
type Logger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
}

var (
	mu       sync.Mutex
	out      io.Writer = colorable.NewColorableStdout()
	minLevel           = LvlInfo
	useColor           = true
)

// SetOutput redirects all module loggers' output; primarily for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetVerbosity sets the global minimum level that gets written.
func SetVerbosity(lvl Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = lvl
}

// SetColorEnabled toggles ANSI coloring of the level tag. Coloring is on
// by default, whatever the output is; nothing checks for a terminal.
func SetColorEnabled(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	useColor = enabled
}

type moduleLogger struct {
	module Module
}

// NewModuleLogger returns a Logger bound to the given module. Every package
// in this repository declares `var logger = log.NewModuleLogger(log.Xxx)`
// at file scope.
func NewModuleLogger(module Module) Logger {
	return &moduleLogger{module: module}
}

func (l *moduleLogger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, msg, ctx) }
func (l *moduleLogger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *moduleLogger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *moduleLogger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *moduleLogger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }
func (l *moduleLogger) Crit(msg string, ctx ...interface{})  { l.write(LvlCrit, msg, ctx) }

func (l *moduleLogger) write(lvl Level, msg string, ctx []interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if lvl > minLevel {
		return
	}

	tag := lvl.String()
	if useColor {
		tag = color.New(levelColor[lvl]).Sprint(tag)
	}

	ts := time.Now().Format("01-02|15:04:05.000")
	caller := ""
	if cs := stack.Trace().TrimRuntime(); len(cs) > 2 {
		caller = fmt.Sprintf(" %v", cs[2])
	}

	fmt.Fprintf(out, "%-5s [%s] [%s]%s %s", tag, ts, l.module, caller, msg)
	for i := 0; i+1 < len(ctx); i += 2 {
		fmt.Fprintf(out, " %v=%v", ctx[i], ctx[i+1])
	}
	fmt.Fprintln(out)

	if lvl == LvlCrit {
		os.Exit(1)
	}
}
