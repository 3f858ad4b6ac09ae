package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirArchiveAppend(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")
	d, err := NewDirArchive(root)
	if err != nil {
		t.Fatalf("NewDirArchive: %v", err)
	}
	if err := d.Append("chaser/01.png", []byte("png")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := d.Append("01_error.txt", []byte("Error: 404")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(root, "chaser", "01.png"))
	if err != nil || string(got) != "png" {
		t.Fatalf("read back %q, %v", got, err)
	}
	if d.Count() != 2 {
		t.Fatalf("Count() = %d", d.Count())
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{"folder/01.png", "folder/01.png", false},
		{"./folder//02.png", "folder/02.png", false},
		{"/abs/source.txt", "abs/source.txt", false},
		{`win\style.png`, "win/style.png", false},
		{"../escape.png", "", true},
		{"a/../../escape.png", "", true},
		{"  ", "", true},
		{".", "", true},
	}
	for _, tc := range tests {
		got, err := sanitizeKey(tc.key)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) = %q, want error", tc.key, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, %v; want %q", tc.key, got, err, tc.want)
		}
	}
}

func TestNewDirArchiveRequiresPath(t *testing.T) {
	if _, err := NewDirArchive(" "); err == nil {
		t.Fatalf("expected error for blank path")
	}
}
