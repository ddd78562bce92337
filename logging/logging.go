// Package logging wires a decred/slog backend behind the zeen Logger
// interface, with one subsystem logger per component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/decred/slog"
)

// Logger is a subsystem logger. It satisfies zeen.Logger.
type Logger struct {
	log slog.Logger
}

func (l *Logger) Debug(format string, args ...any) { l.log.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.log.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log.Errorf(format, args...) }

// Backend hands out subsystem loggers that share a writer and level
type Backend struct {
	mu         sync.Mutex
	backend    *slog.Backend
	level      slog.Level
	subsystems map[string]*Logger
}

// New creates a Backend writing to w. A nil writer means stdout.
func New(w io.Writer, level string) (*Backend, error) {
	if w == nil {
		w = os.Stdout
	}

	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	return &Backend{
		backend:    slog.NewBackend(w),
		level:      lvl,
		subsystems: map[string]*Logger{},
	}, nil
}

// Logger returns the logger for subsystem, creating it on first use.
// Subsystem tags are upper cased, e.g. "ZEEN" or "HTTP".
func (b *Backend) Logger(subsystem string) *Logger {
	tag := strings.ToUpper(subsystem)

	b.mu.Lock()
	defer b.mu.Unlock()

	if l, ok := b.subsystems[tag]; ok {
		return l
	}

	log := b.backend.Logger(tag)
	log.SetLevel(b.level)
	l := &Logger{log: log}
	b.subsystems[tag] = l
	return l
}

// SetLevel changes the level of every subsystem logger
func (b *Backend) SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.level = lvl
	for _, l := range b.subsystems {
		l.log.SetLevel(lvl)
	}
	return nil
}

// ParseLevel maps a level name to a slog level, empty means info
func ParseLevel(level string) (slog.Level, error) {
	if level == "" {
		return slog.LevelInfo, nil
	}
	lvl, ok := slog.LevelFromString(strings.ToLower(level))
	if !ok {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", level)
	}
	return lvl, nil
}
