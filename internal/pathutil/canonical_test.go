package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks() error = %v", err)
	}
	real := filepath.Join(dir, "real")
	if err := os.Mkdir(real, 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"existing dir", real, real},
		{"through link", filepath.Join(link, "file.txt"), filepath.Join(real, "file.txt")},
		{"missing tail", filepath.Join(link, "a", "b"), filepath.Join(real, "a", "b")},
		{"unclean input", filepath.Join(dir, "real", ".", "x"), filepath.Join(real, "x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			if err != nil {
				t.Fatalf("Canonicalize() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonicalizeDanglingLink(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "dangling")
	if err := os.Symlink(filepath.Join(dir, "missing"), link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	if _, err := Canonicalize(filepath.Join(link, "child")); err == nil {
		t.Error("expected error through a dangling link")
	}
}

func TestWithin(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "srv", "data")

	tests := []struct {
		path string
		want bool
	}{
		{root, true},
		{filepath.Join(root, "a"), true},
		{filepath.Join(root, "a", "b"), true},
		{root + "x", false},
		{filepath.Dir(root), false},
		{filepath.Join(root, "..", "other"), false},
	}

	for _, tt := range tests {
		if got := Within(root, tt.path); got != tt.want {
			t.Errorf("Within(%q, %q) = %v, want %v", root, tt.path, got, tt.want)
		}
	}
}
