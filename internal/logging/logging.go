// Package logging wires the two log sinks this upgrader writes to: a
// console writer at an operator-chosen level restricted to this tool's
// own log namespace, and an always-verbose rotating file sink that
// suppresses Juju/websocket transport noise.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/juju/loggo/v2"
	"github.com/juju/lumberjack/v2"
)

// Namespace is the logger name every package in this module logs under
// (via loggo.GetContext().GetLogger(Namespace) or a child of it), and the
// only namespace the console writer ever prints.
const Namespace = "cou"

// Logger is the logging surface the rest of this module depends on;
// internal/executor.Logger and internal/ssdlc.Logger are both satisfied
// by it structurally.
type Logger = loggo.Logger

// Config controls Setup.
type Config struct {
	// ConsoleLevel is the console sink's level name (cmd/cou derives it
	// from --verbose/--quiet); an unparseable value falls back to INFO.
	ConsoleLevel string
	// LogDir is config.Config.LogDir(): the directory the rotating file
	// sink is created under.
	LogDir string
}

// Result is what Setup hands back: the root logger for Namespace, the
// path of the log file just created, and a Close func releasing it.
type Result struct {
	Logger  Logger
	LogPath string
	Close   func() error
}

// Setup creates cfg.LogDir if needed, opens a fresh rotating log file
// under it, and registers both writers against a brand-new loggo
// Context. The returned logger is set to TRACE; the console writer
// enforces cfg.ConsoleLevel itself.
func Setup(cfg Config) (Result, error) {
	level, ok := loggo.ParseLevel(cfg.ConsoleLevel)
	if !ok {
		level = loggo.INFO
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create log directory %q: %w", cfg.LogDir, err)
	}
	logPath := filepath.Join(cfg.LogDir, fmt.Sprintf("cou-%s.log", time.Now().Format("20060102150405")))
	fileSink := &lumberjack.Logger{Filename: logPath, MaxSize: 100, MaxBackups: 5}

	ctx := loggo.NewContext(loggo.TRACE)
	if err := ctx.AddWriter("file", noiseFilteredWriter{next: newTextWriter(fileSink)}); err != nil {
		return Result{}, fmt.Errorf("register file log writer: %w", err)
	}
	if err := ctx.AddWriter("console", namespaceFilteredWriter{
		namespace: Namespace,
		level:     level,
		next:      newTextWriter(os.Stderr),
	}); err != nil {
		return Result{}, fmt.Errorf("register console log writer: %w", err)
	}

	logger := ctx.GetLogger(Namespace)
	logger.SetLogLevel(loggo.TRACE)

	return Result{Logger: logger, LogPath: logPath, Close: fileSink.Close}, nil
}

// textWriter renders a loggo.Entry as a single human-readable line,
// matching the original's "<timestamp> [<name>] [<level>] <message>"
// file format (the console format there additionally drops the logger
// name, which namespaceFilteredWriter already makes redundant here since
// only one namespace ever reaches the console).
type textWriter struct {
	out io.Writer
}

func newTextWriter(out io.Writer) *textWriter { return &textWriter{out: out} }

func (w *textWriter) Write(entry loggo.Entry) {
	fmt.Fprintf(w.out, "%s [%s] [%s] %s\n",
		entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Module, entry.Level, entry.Message)
}

// namespaceFilteredWriter restricts the console to Namespace (mirrors the
// original's logging.Filter(__package__)) and to entries at or above
// level.
type namespaceFilteredWriter struct {
	namespace string
	level     loggo.Level
	next      loggo.Writer
}

func (w namespaceFilteredWriter) Write(entry loggo.Entry) {
	if entry.Level < w.level {
		return
	}
	if entry.Module != w.namespace && !strings.HasPrefix(entry.Module, w.namespace+".") {
		return
	}
	w.next.Write(entry)
}

// noiseFilteredWriter drops DEBUG-level records from the Juju API client
// and websocket transport, which are verbose enough to dominate the log
// file otherwise. Ports filter_debug_logs.
type noiseFilteredWriter struct {
	next loggo.Writer
}

func (w noiseFilteredWriter) Write(entry loggo.Entry) {
	if entry.Level == loggo.DEBUG &&
		(strings.HasPrefix(entry.Module, "juju.") || strings.HasPrefix(entry.Module, "websocket")) {
		return
	}
	w.next.Write(entry)
}
