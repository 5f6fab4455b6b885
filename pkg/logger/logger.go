// Package logger owns the process-wide zerolog logger.
//
// main calls Init once; everything else asks for a Component logger.
package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Options is read once, on the first Init call.
type Options struct {
	// Level accepts zerolog level names plus "warning"; anything else falls back to info.
	Level  string
	Pretty bool
	Output io.Writer // os.Stdout when nil

	Service string
	Version string
}

var root atomic.Pointer[zerolog.Logger]

// Init builds the root logger. Later calls return the existing one untouched.
func Init(opts Options) zerolog.Logger {
	if l := root.Load(); l != nil {
		return *l
	}

	w := opts.Output
	if w == nil {
		w = os.Stdout
	}
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	lvl := levelOf(opts.Level)
	zerolog.SetGlobalLevel(lvl)

	b := zerolog.New(w).Level(lvl).With().Timestamp().Caller()
	for k, v := range map[string]string{"service": opts.Service, "version": opts.Version} {
		if v != "" {
			b = b.Str(k, v)
		}
	}
	l := b.Logger()

	if !root.CompareAndSwap(nil, &l) {
		return *root.Load()
	}
	return l
}

// Get returns the root logger and panics when Init has not run.
func Get() zerolog.Logger {
	l := root.Load()
	if l == nil {
		panic("logger: Get() called before Init()")
	}
	return *l
}

// Component tags a child of the root logger with component=name.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset forgets the root logger. Tests only.
func Reset() {
	root.Store(nil)
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

func levelOf(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return zerolog.WarnLevel
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
