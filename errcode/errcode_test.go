package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"bare code", Timeout, Timeout},
		{"wrapped E", &E{C: PinInUse, Op: "claim"}, PinInUse},
		{"fmt wrapped code", fmt.Errorf("claim: %w", UnknownPin), UnknownPin},
		{"foreign", errors.New("boom"), Error},
	}
	for _, c := range cases {
		if got := Of(c.err); got != c.want {
			t.Fatalf("%s: Of() = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestEErrorAndIs(t *testing.T) {
	cause := errors.New("nack")
	e := Wrap(BusError, "pcf8574.write", cause)
	if got, want := e.Error(), "pcf8574.write: bus_error: nack"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(e, BusError) {
		t.Fatal("errors.Is(e, BusError) = false")
	}
	if !errors.Is(e, cause) {
		t.Fatal("errors.Is(e, cause) = false")
	}
	if errors.Is(e, Timeout) {
		t.Fatal("errors.Is(e, Timeout) = true")
	}
}
