package term

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// capture redirects both streams for the duration of the test.
func capture(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	SetOutput(out)
	SetErrOutput(errOut)
	t.Cleanup(Reset)
	return out, errOut
}

func TestStdoutWriters(t *testing.T) {
	tests := []struct {
		name  string
		write func()
		want  string
	}{
		{"Print", func() { Print("a", "b") }, "ab"},
		{"Printf", func() { Printf("%s=%d", "n", 3) }, "n=3"},
		{"Println", func() { Println("line") }, "line\n"},
		{"Block adds newline", func() { Block("out") }, "out\n"},
		{"Block keeps newline", func() { Block("out\n") }, "out\n"},
		{"Block empty", func() { Block("") }, ""},
		{"JSON", func() { _ = JSON(map[string]bool{"valid": true}) }, "{\n  \"valid\": true\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := capture(t)
			tt.write()
			if out.String() != tt.want {
				t.Errorf("stdout = %q, want %q", out.String(), tt.want)
			}
			if errOut.Len() != 0 {
				t.Errorf("stderr = %q, want empty", errOut.String())
			}

			// Silent mode suppresses every stdout writer.
			out.Reset()
			SetSilent(true)
			tt.write()
			if out.Len() != 0 {
				t.Errorf("silent stdout = %q", out.String())
			}
		})
	}
}

func TestStderrWriters(t *testing.T) {
	out, errOut := capture(t)
	SetSilent(true)

	Warn("disk %d%% full", 90)
	Error("failed: %s", "boom")

	want := "Warning: disk 90% full\nError: failed: boom\n"
	if errOut.String() != want {
		t.Errorf("stderr = %q, want %q", errOut.String(), want)
	}
	if out.Len() != 0 {
		t.Errorf("stdout = %q, want empty", out.String())
	}
}

func TestJSON_Unencodable(t *testing.T) {
	capture(t)
	if err := JSON(make(chan int)); err == nil {
		t.Error("JSON() expected error for a channel")
	}
}

func TestIsSilent(t *testing.T) {
	t.Cleanup(Reset)
	if IsSilent() {
		t.Error("IsSilent() = true by default")
	}
	SetSilent(true)
	if !IsSilent() {
		t.Error("IsSilent() = false after SetSilent(true)")
	}
}

func TestStdoutAndStderr(t *testing.T) {
	out, errOut := capture(t)
	if Stdout() != io.Writer(out) || Stderr() != io.Writer(errOut) {
		t.Error("Stdout()/Stderr() do not return the configured writers")
	}
	SetSilent(true)
	if Stdout() != io.Discard {
		t.Error("Stdout() should be io.Discard when silent")
	}
}

func TestSetOutput_Nil(t *testing.T) {
	t.Cleanup(Reset)
	SetOutput(&bytes.Buffer{})
	SetOutput(nil)
	SetErrOutput(nil)
	if Stdout() != io.Writer(os.Stdout) || Stderr() != io.Writer(os.Stderr) {
		t.Error("nil writers should restore os.Stdout and os.Stderr")
	}
}

func TestDiscardAndReset(t *testing.T) {
	t.Cleanup(Reset)
	Discard()
	if Stdout() != io.Discard || Stderr() != io.Discard {
		t.Error("Discard() should route both streams to io.Discard")
	}
	SetSilent(true)
	Reset()
	if IsSilent() || Stdout() != io.Writer(os.Stdout) {
		t.Error("Reset() did not restore defaults")
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(strings.NewReader("x")) {
		t.Error("IsTerminal(strings.Reader) = true")
	}
	f, err := os.Create(filepath.Join(t.TempDir(), "in"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer func() { _ = f.Close() }()
	if IsTerminal(f) {
		t.Error("IsTerminal(regular file) = true")
	}
}
