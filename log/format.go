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
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

const (
	timeFormat = "2006-01-02T15:04:05-0700"

	termMsgJust = 40
	// levelMaxVerbosity is the lowest (most verbose) level this handler set
	// understands; the terminal and JSON handlers default their LevelVar to
	// it so every record is emitted unless the caller narrows it.
	// LogfmtHandler sets no level and so uses slog's default (Info).
	levelMaxVerbosity = LevelTrace
)

var (
	colorReset  = []byte("\x1b[0m")
	colorForLvl = map[slog.Level][]byte{
		LevelCrit:  []byte("\x1b[35m"), // magenta
		LevelError: []byte("\x1b[31m"), // red
		LevelWarn:  []byte("\x1b[33m"), // yellow
		LevelInfo:  []byte("\x1b[32m"), // green
		LevelDebug: []byte("\x1b[36m"), // cyan
		LevelTrace: []byte("\x1b[90m"), // bright black
	}
)

// LevelString returns the four-letter abbreviation used throughout this
// package's handlers, matching the terminal/logfmt/JSON sinks.
func LevelString(l slog.Level) string {
	switch {
	case l <= LevelTrace:
		return "TRAC"
	case l <= LevelDebug:
		return "DBUG"
	case l <= LevelInfo:
		return "INFO"
	case l <= LevelWarn:
		return "WARN"
	case l <= LevelError:
		return "EROR"
	default:
		return "CRIT"
	}
}

// format renders r as a single human-readable line:
//
//	[LEVEL] [TIME] MESSAGE key=value key=value ...
func (h *TerminalHandler) format(buf []byte, r slog.Record, useColor bool) []byte {
	lvl := LevelString(r.Level)
	if useColor {
		color := colorForLvl[r.Level]
		if color == nil {
			color = colorForLvl[LevelInfo]
		}
		buf = append(buf, color...)
		buf = append(buf, '[')
		buf = append(buf, lvl...)
		buf = append(buf, ']')
		buf = append(buf, colorReset...)
	} else {
		buf = append(buf, '[')
		buf = append(buf, lvl...)
		buf = append(buf, ']')
	}

	buf = append(buf, " ["...)
	buf = r.Time.AppendFormat(buf, "Jan 02 15:04:05")
	buf = append(buf, "] "...)

	msg := r.Message
	buf = append(buf, msg...)
	if pad := termMsgJust - len(msg); pad > 0 {
		buf = append(buf, strings.Repeat(" ", pad)...)
	}

	attrs := h.attrs
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	for _, a := range attrs {
		buf = append(buf, ' ')
		buf = append(buf, a.Key...)
		buf = append(buf, '=')
		buf = appendAttrValue(buf, a.Value)
	}
	buf = append(buf, '\n')
	return buf
}

func appendAttrValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		return appendEscaped(buf, v.String())
	case slog.KindInt64:
		return appendInt64(buf, v.Int64())
	case slog.KindUint64:
		return appendUint64(buf, v.Uint64(), false)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'f', 3, 64)
	case slog.KindTime:
		return v.Time().AppendFormat(buf, timeFormat)
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	default:
		return appendEscaped(buf, fmt.Sprint(v.Any()))
	}
}

func appendEscaped(buf []byte, s string) []byte {
	if !strings.ContainsAny(s, " =\"\n") {
		return append(buf, s...)
	}
	return strconv.AppendQuote(buf, s)
}

func appendInt64(buf []byte, n int64) []byte {
	return strconv.AppendInt(buf, n, 10)
}

func appendUint64(buf []byte, n uint64, neg bool) []byte {
	if neg {
		buf = append(buf, '-')
	}
	return strconv.AppendUint(buf, n, 10)
}
