// Copyright 2017 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// Level constants, ordered most to least verbose. They mirror slog's
// built-in levels but add Trace below Debug and Crit above Error, matching
// the four-letter labels the terminal/logfmt/JSON sinks print.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelCrit  = slog.Level(12)
)

// Logger writes structured, leveled records with a fixed set of
// context key/value pairs attached to every call.
type Logger interface {
	// With returns a new Logger that appends ctx to every record, in
	// addition to any context already carried by the receiver.
	With(ctx ...any) Logger
	// New is an alias for With, kept for callers used to the log15-style
	// constructor name.
	New(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)

	// Handler returns the slog.Handler backing this Logger.
	Handler() slog.Handler
}

type logger struct {
	inner *slog.Logger
}

func (l *logger) write(level slog.Level, msg string, ctx []any) {
	if !l.inner.Handler().Enabled(context.Background(), level) {
		return
	}
	l.inner.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) With(ctx ...any) Logger { return &logger{l.inner.With(ctx...)} }
func (l *logger) New(ctx ...any) Logger  { return l.With(ctx...) }

func (l *logger) Trace(msg string, ctx ...any) { l.write(LevelTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.write(LevelError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...any)  { l.write(LevelCrit, msg, ctx) }

func (l *logger) Handler() slog.Handler { return l.inner.Handler() }

// New wraps an slog.Handler in a Logger, with ctx attached to every record.
func New(handler slog.Handler, ctx ...any) Logger {
	l := &logger{slog.New(handler)}
	if len(ctx) == 0 {
		return l
	}
	return l.With(ctx...)
}

var root atomic.Pointer[logger]
var rootOnce sync.Once

func defaultRoot() *logger {
	rootOnce.Do(func() {
		root.CompareAndSwap(nil, &logger{slog.New(NewTerminalHandler(os.Stderr, false))})
	})
	return root.Load()
}

// Root returns the package-wide default Logger.
func Root() Logger { return defaultRoot() }

// SetDefault replaces the package-wide default Logger's handler.
func SetDefault(l Logger) {
	if lg, ok := l.(*logger); ok {
		root.Store(lg)
		return
	}
	root.Store(&logger{slog.New(l.Handler())})
}

// WithContext returns a Logger derived from Root with ctx attached to
// every subsequent record — the construction used throughout this module
// to name a per-package logger, e.g. `var logger = log.WithContext("pkg", "llmq")`.
func WithContext(ctx ...any) Logger {
	return defaultRoot().With(ctx...)
}

func Trace(msg string, ctx ...any) { defaultRoot().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { defaultRoot().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { defaultRoot().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { defaultRoot().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { defaultRoot().Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { defaultRoot().Crit(msg, ctx...) }
