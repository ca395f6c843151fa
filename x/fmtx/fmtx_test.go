package fmtx

import (
	"bytes"
	"testing"
	"time"
)

func TestSprintfVerbs(t *testing.T) {
	for _, c := range []struct {
		fmt  string
		args []any
		want string
	}{
		{"[seq] %s", []any{"power_on"}, "[seq] power_on"},
		{"steps=%d addr=%x/%X", []any{uint32(4), 0x2a, 0x2a}, "steps=4 addr=2a/2A"},
		{"held=%t", []any{true}, "held=true"},
		{"100%%", nil, "100%"},
		{"cmd %q", []any{"st\"x"}, `cmd "st\"x"`},
		{"settle %v", []any{500 * time.Millisecond}, "settle 500ms"},
		{"%.4s|%5d", []any{"powering_on", 42}, "powe|   42"},
	} {
		if got := Sprintf(c.fmt, c.args...); got != c.want {
			t.Errorf("Sprintf(%q) = %q, want %q", c.fmt, got, c.want)
		}
	}
}

func TestPrintGoesToDefaultOutput(t *testing.T) {
	var buf bytes.Buffer
	old := DefaultOutput
	DefaultOutput = &buf
	defer func() { DefaultOutput = old }()

	if _, err := Printf("on=%d off=%d\n", 1, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := Print("held"); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "on=1 off=0\nheld"; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestErrorf(t *testing.T) {
	err := Errorf("claim %s: pin %d", "boot", 40)
	if err == nil || err.Error() != "claim boot: pin 40" {
		t.Fatalf("Errorf = %v", err)
	}
}
