// Package log wraps go-logging with one shared backend and named module
// loggers.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

// ErrUnknownLevel is returned by ParseLevel for an unrecognised name.
var ErrUnknownLevel = errors.New("log: unknown level")

// Level is a logging verbosity, from Debug (most output) to Error.
type Level int

const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var levels = [...]struct {
	name    string
	backend logging.Level
}{
	Debug:   {"debug", logging.DEBUG},
	Info:    {"info", logging.INFO},
	Notice:  {"notice", logging.NOTICE},
	Warning: {"warning", logging.WARNING},
	Error:   {"error", logging.ERROR},
}

func (l Level) String() string {
	if l < Debug || l > Error {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levels[l].name
}

// ParseLevel maps a level name, case insensitively, to its Level.
func ParseLevel(name string) (Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for l, entry := range levels {
		if entry.name == name {
			return Level(l), nil
		}
	}
	return Notice, fmt.Errorf("%q: %w", name, ErrUnknownLevel)
}

// Terminals get coloured level tags; buffers and files get plain text.
var (
	colorFormat = logging.MustStringFormatter(
		`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
	)
	plainFormat = logging.MustStringFormatter(
		`[%{time:15:04:05.000}] [%{module}] [%{level}] %{message}`,
	)
)

var (
	sink    io.Writer
	current = Notice
	backend logging.LeveledBackend
)

// Logger is implemented by the named loggers returned from New.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// New returns the logger for a module. Messages are tagged with name.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// SetSink sends all module output to w at the current level.
func SetSink(w io.Writer) {
	format := plainFormat
	if _, ok := w.(*os.File); ok {
		format = colorFormat
	}
	sink = w
	backend = logging.AddModuleLevel(logging.NewBackendFormatter(logging.NewLogBackend(w, "", 0), format))
	backend.SetLevel(levels[current].backend, "")
	logging.SetBackend(backend)
}

// Redirect sends output to w and returns a function restoring the previous
// sink and level.
func Redirect(w io.Writer) (restore func()) {
	prevSink, prevLevel := sink, current
	SetSink(w)
	return func() {
		current = prevLevel
		SetSink(prevSink)
	}
}

// SetLevel sets the verbosity of every module. Out of range levels are
// ignored.
func SetLevel(level Level) {
	if level < Debug || level > Error {
		return
	}
	current = level
	backend.SetLevel(levels[level].backend, "")
}

// CurrentLevel returns the verbosity set by SetLevel.
func CurrentLevel() Level {
	return current
}

func init() {
	SetSink(os.Stdout)
}
