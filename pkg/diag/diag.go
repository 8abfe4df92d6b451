// Package diag is the diagnostic channel used by the event packet code.
//
// Callers hand a Sink to the packets they build. The default is Nop, which
// discards messages without formatting them, so turning diagnostics off
// costs one interface call per reported failure and nothing else. Sinks
// must never panic or return errors: a failing sink only loses the message.
package diag

import (
	"fmt"
	"strings"
)

// Level is a message severity. Lower is more severe.
type Level int

const (
	Emergency Level = iota
	Alert
	Critical
	Error
	Warning
	Notice
	Info
	Debug
)

var levelNames = [...]string{
	Emergency: "emergency",
	Alert:     "alert",
	Critical:  "critical",
	Error:     "error",
	Warning:   "warning",
	Notice:    "notice",
	Info:      "info",
	Debug:     "debug",
}

func (l Level) String() string {
	if l < Emergency || l > Debug {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel converts a level name into a Level. Matching is case
// insensitive and accepts "warn" for Warning.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warn" {
		return Warning, nil
	}
	for l, n := range levelNames {
		if n == name {
			return Level(l), nil
		}
	}
	return Debug, fmt.Errorf("unknown diagnostic level %q", s)
}

// Sink receives diagnostics. component names the part of the system
// reporting, format and args follow fmt.Sprintf.
type Sink interface {
	Log(level Level, component, format string, args ...any)
}

// Nop discards everything.
var Nop Sink = nopSink{}

type nopSink struct{}

func (nopSink) Log(Level, string, string, ...any) {}

// Func adapts a plain function to a Sink.
type Func func(level Level, component, message string)

// Log formats the message and calls f.
func (f Func) Log(level Level, component, format string, args ...any) {
	f(level, component, fmt.Sprintf(format, args...))
}

// OrNop returns s, or Nop when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop
	}
	return s
}

type multiSink []Sink

// Multi fans a message out to every sink. Nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return Nop
	case 1:
		return out[0]
	}
	return out
}

func (m multiSink) Log(level Level, component, format string, args ...any) {
	for _, s := range m {
		s.Log(level, component, format, args...)
	}
}

type thresholdSink struct {
	next Sink
	max  Level
}

// Threshold drops messages less severe than max.
func Threshold(next Sink, max Level) Sink {
	return thresholdSink{next: OrNop(next), max: max}
}

func (t thresholdSink) Log(level Level, component, format string, args ...any) {
	if level > t.max {
		return
	}
	t.next.Log(level, component, format, args...)
}
