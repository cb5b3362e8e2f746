package errcode

import (
	"errors"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"ok":              OK,
		"no_echo":         NoEcho,
		"out_of_range":    OutOfRange,
		"unknown_command": UnknownCommand,
		"invalid_params":  InvalidParams,
		"link_write":      LinkWrite,
		"timeout":         Timeout,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestOf(t *testing.T) {
	if Of(nil) != OK {
		t.Fatal("nil should map to ok")
	}
	if Of(NoEcho) != NoEcho {
		t.Fatal("bare code should map to itself")
	}
	e := &E{C: InvalidParams, Op: "config", Msg: "alert_cm >= warning_cm"}
	if Of(e) != InvalidParams {
		t.Fatalf("wrapped code = %q", Of(e))
	}
	if got, want := e.Error(), "config: invalid_params: alert_cm >= warning_cm"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if Of(errors.New("boom")) != Error {
		t.Fatal("foreign errors should map to error")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(LinkWrite, "send", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
	cause := errors.New("uart full")
	err := Wrap(LinkWrite, "send", cause)
	if !errors.Is(err, cause) {
		t.Fatal("Wrap should keep the cause")
	}
	if Of(err) != LinkWrite {
		t.Fatalf("Of(Wrap) = %q", Of(err))
	}
}
