//go:build unix

package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestServerRejectsSpecialFiles(t *testing.T) {
	s, root := newTestServer(t)
	fifo := filepath.Join(root, "pipe")
	if err := unix.Mkfifo(fifo, 0o600); err != nil {
		t.Fatalf("Mkfifo() error = %v", err)
	}

	tests := []struct {
		name string
		tool string
		args map[string]any
	}{
		{"read_text_file", ToolReadTextFile, map[string]any{"path": fifo}},
		{"read_file", ToolReadFile, map[string]any{"path": fifo}},
		{"write_file", ToolWriteFile, map[string]any{"path": fifo, "content": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The ping after the tool call must still be answered.
			in := strings.NewReader(
				request(t, 1, MethodToolsCall, CallToolParams{Name: tt.tool, Arguments: tt.args}) + "\n" +
					request(t, 2, MethodPing, struct{}{}) + "\n")
			var out bytes.Buffer
			done := make(chan error, 1)
			go func() { done <- s.Serve(context.Background(), in, &out) }()

			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("Serve() error = %v", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("server blocked on a FIFO")
			}

			var resps []Response
			sc := bufio.NewScanner(&out)
			for sc.Scan() {
				var r Response
				if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
					t.Fatalf("server wrote invalid JSON %q: %v", sc.Text(), err)
				}
				resps = append(resps, r)
			}
			if len(resps) != 2 {
				t.Fatalf("got %d responses, want 2", len(resps))
			}

			var res CallToolResult
			if err := json.Unmarshal(resps[0].Result, &res); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !res.IsError || !strings.Contains(res.Text(), "not a regular file") {
				t.Errorf("tool result = %+v, want not-a-regular-file error", res)
			}
			if resps[1].Error != nil || resps[1].ID == nil || *resps[1].ID != 2 {
				t.Errorf("ping response = %+v", resps[1])
			}
		})
	}

	info, err := os.Lstat(fifo)
	if err != nil {
		t.Fatalf("Lstat() error = %v", err)
	}
	if info.Mode()&os.ModeNamedPipe == 0 {
		t.Errorf("FIFO was replaced: mode %v", info.Mode())
	}
}
