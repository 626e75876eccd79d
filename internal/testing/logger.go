package testing

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"apiauto/pkg/logging"
)

// stdoutLogger is the TestLogger of the CLI.
type stdoutLogger struct {
	verbose bool
	debug   bool

	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

// NewStdoutLogger writes to stdout, errors to stderr.
func NewStdoutLogger(verbose, debug bool) TestLogger {
	return NewWriterLogger(verbose, debug, os.Stdout, os.Stderr)
}

// NewWriterLogger creates a logger writing info and debug output to out and
// errors to errOut. Writes are serialized for parallel scenarios.
func NewWriterLogger(verbose, debug bool, out, errOut io.Writer) TestLogger {
	return &stdoutLogger{
		verbose: verbose,
		debug:   debug,
		out:     out,
		errOut:  errOut,
	}
}

func (l *stdoutLogger) Debug(format string, args ...interface{}) {
	if l.debug {
		l.write(l.out, format, args...)
	}
}

func (l *stdoutLogger) Info(format string, args ...interface{}) {
	if l.verbose || l.debug {
		l.write(l.out, format, args...)
	}
}

func (l *stdoutLogger) Error(format string, args ...interface{}) {
	l.write(l.errOut, format, args...)
}

func (l *stdoutLogger) write(w io.Writer, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(w, format, args...)
}

func (l *stdoutLogger) IsDebugEnabled() bool   { return l.debug }
func (l *stdoutLogger) IsVerboseEnabled() bool { return l.verbose }

// silentLogger keeps stdio free for the MCP protocol. Debug and error lines
// go to the process logger instead, which writes to stderr.
type silentLogger struct {
	verbose bool
	debug   bool
}

// NewSilentLogger returns a TestLogger that never writes to stdout.
func NewSilentLogger(verbose, debug bool) TestLogger {
	return &silentLogger{verbose: verbose, debug: debug}
}

func (l *silentLogger) Debug(format string, args ...interface{}) {
	if l.debug {
		logging.Debug(loggerSubsystem, "%s", logLine(format, args...))
	}
}

func (l *silentLogger) Info(format string, args ...interface{}) {}

func (l *silentLogger) Error(format string, args ...interface{}) {
	logging.Warn(loggerSubsystem, "%s", logLine(format, args...))
}

func (l *silentLogger) IsDebugEnabled() bool   { return l.debug }
func (l *silentLogger) IsVerboseEnabled() bool { return l.verbose }

const loggerSubsystem = "TestRunner"

// logLine renders a reporter-style line for the process logger, which
// adds its own line ending.
func logLine(format string, args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
