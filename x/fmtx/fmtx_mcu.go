//go:build rp2040 || rp2350

package fmtx

import (
	"io"
	"strconv"
	"time"
)

// DefaultOutput is where Print and Printf write. The firmware points it at
// the console UART during bring-up.
var DefaultOutput io.Writer = discard{}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func Sprintf(format string, a ...any) string {
	var b buf
	b.format(format, a)
	return string(b)
}

func Printf(format string, a ...any) (int, error) {
	return Fprintf(DefaultOutput, format, a...)
}

func Fprintf(w io.Writer, format string, a ...any) (int, error) {
	var b buf
	b.format(format, a)
	return w.Write(b)
}

func Errorf(format string, a ...any) error {
	return stringError(Sprintf(format, a...))
}

func Sprint(a ...any) string {
	var b buf
	b.list(a)
	return string(b)
}

func Fprint(w io.Writer, a ...any) (int, error) {
	var b buf
	b.list(a)
	return w.Write(b)
}

func Print(a ...any) (int, error) { return Fprint(DefaultOutput, a...) }

type stringError string

func (e stringError) Error() string { return string(e) }

// buf implements %s %q %d %x %X %t %v %% with an optional width for %s and
// %d and a precision for %s. Flags are not supported.
type buf []byte

func (b *buf) list(a []any) {
	for i, v := range a {
		if i > 0 {
			*b = append(*b, ' ')
		}
		b.value(v, 'v')
	}
}

func (b *buf) format(f string, args []any) {
	ai := 0
	for i := 0; i < len(f); i++ {
		c := f[i]
		if c != '%' {
			*b = append(*b, c)
			continue
		}
		i++
		if i < len(f) && f[i] == '%' {
			*b = append(*b, '%')
			continue
		}
		width, prec := -1, -1
		width, i = num(f, i)
		if i < len(f) && f[i] == '.' {
			prec, i = num(f, i+1)
		}
		if i >= len(f) {
			return
		}
		verb := f[i]
		if ai >= len(args) {
			*b = append(*b, "%!"...)
			*b = append(*b, verb)
			*b = append(*b, "(MISSING)"...)
			continue
		}
		arg := args[ai]
		ai++

		start := len(*b)
		switch verb {
		case 's', 'q', 'v', 'd', 't':
			b.value(arg, verb)
		case 'x', 'X':
			if u, ok := unsigned(arg); ok {
				b.hex(u, verb == 'X')
			} else {
				b.value(arg, 'v')
			}
		default:
			*b = append(*b, '%', verb)
			continue
		}
		if prec >= 0 && (verb == 's' || verb == 'q') && len(*b)-start > prec {
			*b = (*b)[:start+prec]
		}
		if pad := width - (len(*b) - start); width > 0 && pad > 0 {
			b.padLeft(start, pad)
		}
	}
}

func (b *buf) padLeft(at, n int) {
	for j := 0; j < n; j++ {
		*b = append(*b, ' ')
	}
	copy((*b)[at+n:], (*b)[at:len(*b)-n])
	for j := 0; j < n; j++ {
		(*b)[at+j] = ' '
	}
}

func (b *buf) hex(u uint64, upper bool) {
	start := len(*b)
	*b = strconv.AppendUint(*b, u, 16)
	if upper {
		for j := start; j < len(*b); j++ {
			if c := (*b)[j]; 'a' <= c && c <= 'f' {
				(*b)[j] = c - 'a' + 'A'
			}
		}
	}
}

func (b *buf) value(v any, verb byte) {
	switch x := v.(type) {
	case nil:
		*b = append(*b, "<nil>"...)
	case string:
		b.str(x, verb)
	case []byte:
		b.str(string(x), verb)
	case bool:
		*b = strconv.AppendBool(*b, x)
	case int:
		*b = strconv.AppendInt(*b, int64(x), 10)
	case int8:
		*b = strconv.AppendInt(*b, int64(x), 10)
	case int16:
		*b = strconv.AppendInt(*b, int64(x), 10)
	case int32:
		*b = strconv.AppendInt(*b, int64(x), 10)
	case int64:
		*b = strconv.AppendInt(*b, x, 10)
	case time.Duration:
		*b = append(*b, x.String()...)
	case float32:
		*b = strconv.AppendFloat(*b, float64(x), 'g', -1, 32)
	case float64:
		*b = strconv.AppendFloat(*b, x, 'g', -1, 64)
	case error:
		b.str(x.Error(), verb)
	case interface{ String() string }:
		b.str(x.String(), verb)
	default:
		if u, ok := unsigned(v); ok {
			*b = strconv.AppendUint(*b, u, 10)
			return
		}
		*b = append(*b, "%!v(?)"...)
	}
}

func (b *buf) str(s string, verb byte) {
	if verb == 'q' {
		*b = strconv.AppendQuote(*b, s)
		return
	}
	*b = append(*b, s...)
}

func unsigned(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	case uintptr:
		return uint64(x), true
	case int:
		return uint64(x), x >= 0
	case int32:
		return uint64(x), x >= 0
	case int64:
		return uint64(x), x >= 0
	}
	return 0, false
}

// num parses an optional decimal at f[i:]; -1 when absent.
func num(f string, i int) (int, int) {
	n, start := 0, i
	for i < len(f) && '0' <= f[i] && f[i] <= '9' {
		n = n*10 + int(f[i]-'0')
		i++
	}
	if i == start {
		return -1, i
	}
	return n, i
}
