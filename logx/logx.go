// Package logx is line logging for firmware and host builds. Lines look like
//
//	[seq] power_on steps=0
//
// and go through x/fmtx, so MCU builds never pull in fmt.
package logx

import (
	"io"
	"sync"

	"powerseq-go/x/fmtx"
)

type Level uint8

const (
	Debug Level = iota
	Info
	Warn
	Error
)

var prefixes = [...]string{"debug", "info", "warn", "error"}

func (l Level) String() string {
	if int(l) < len(prefixes) {
		return prefixes[l]
	}
	return "?"
}

var (
	mu    sync.Mutex
	out   io.Writer // nil means fmtx.DefaultOutput
	level = Info
)

// SetOutput redirects all loggers. nil restores fmtx.DefaultOutput.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

// SetLevel drops lines below l.
func SetLevel(l Level) {
	mu.Lock()
	level = l
	mu.Unlock()
}

// Logger prefixes every line with its tag.
type Logger struct{ tag string }

func New(tag string) Logger { return Logger{tag: tag} }

func (l Logger) Debugf(format string, a ...any) { l.logf(Debug, format, a) }
func (l Logger) Infof(format string, a ...any)  { l.logf(Info, format, a) }
func (l Logger) Warnf(format string, a ...any)  { l.logf(Warn, format, a) }
func (l Logger) Errorf(format string, a ...any) { l.logf(Error, format, a) }

func (l Logger) logf(lv Level, format string, a []any) {
	mu.Lock()
	defer mu.Unlock()
	if lv < level {
		return
	}
	w := out
	if w == nil {
		w = fmtx.DefaultOutput
	}
	line := "[" + l.tag + "] "
	if lv >= Warn {
		line += lv.String() + ": "
	}
	line += fmtx.Sprintf(format, a...) + "\n"
	_, _ = io.WriteString(w, line)
}
