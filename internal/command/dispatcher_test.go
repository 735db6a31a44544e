package command

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

type recordingController struct {
	calls []string
}

func (r *recordingController) Connect()    { r.calls = append(r.calls, "connect") }
func (r *recordingController) Disconnect() { r.calls = append(r.calls, "disconnect") }
func (r *recordingController) StartJob()   { r.calls = append(r.calls, "start") }
func (r *recordingController) Hold()       { r.calls = append(r.calls, "hold") }
func (r *recordingController) Resume()     { r.calls = append(r.calls, "resume") }
func (r *recordingController) Abort()      { r.calls = append(r.calls, "abort") }
func (r *recordingController) EStop()      { r.calls = append(r.calls, "estop") }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseAliases(t *testing.T) {
	cases := map[string]Command{
		"connect":          Connect,
		"usb_connect":      Connect,
		"USB_CONNECT":      Connect,
		" usb_disconnect ": Disconnect,
		"pause":            Hold,
		"hold":             Hold,
		"resume":           Resume,
		"abort":            Abort,
		"estop":            EStop,
		"stop":             EStop,
		"start":            Start,
	}
	for line, want := range cases {
		got, err := Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", line, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %s, want %s", line, got, want)
		}
	}
}

func TestParseUnknownCommandIsSyntaxError(t *testing.T) {
	_, err := Parse("unknown_cmd")
	var syntaxErr *ErrSyntax
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected syntax error, got %v", err)
	}
	if syntaxErr.Input != "unknown_cmd" {
		t.Fatalf("syntax error should carry the input, got %q", syntaxErr.Input)
	}
}

func TestDispatchInvokesController(t *testing.T) {
	rec := &recordingController{}
	d := NewDispatcher(testLogger(), rec)

	for _, line := range []string{"usb_connect", "start", "pause", "resume", "estop"} {
		if err := d.Dispatch(line); err != nil {
			t.Fatalf("dispatch %q: %v", line, err)
		}
	}

	want := []string{"connect", "start", "hold", "resume", "estop"}
	if len(rec.calls) != len(want) {
		t.Fatalf("unexpected calls: %v", rec.calls)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Fatalf("call %d = %q, want %q", i, rec.calls[i], want[i])
		}
	}
}

func TestDispatchSyntaxErrorDoesNotReachController(t *testing.T) {
	rec := &recordingController{}
	d := NewDispatcher(testLogger(), rec)

	if err := d.Dispatch("fire_the_laser!"); err == nil {
		t.Fatalf("expected syntax error")
	}
	if len(rec.calls) != 0 {
		t.Fatalf("controller must not see malformed commands: %v", rec.calls)
	}
}

func TestDispatchWithoutControllerIsNoOp(t *testing.T) {
	d := NewDispatcher(testLogger(), nil)

	if err := d.Dispatch("pause"); err != nil {
		t.Fatalf("absent controller must be a no-op, got %v", err)
	}
	if err := d.Dispatch("garbage"); err == nil {
		t.Fatalf("syntax errors still apply without a controller")
	}
}
