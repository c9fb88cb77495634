package filemanager

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestMatchesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "button.tsx")
	os.WriteFile(path, []byte("export const Button = 1\n"), 0644)

	tests := []struct {
		name string
		data string
		want bool
	}{
		{"identical", "export const Button = 1\n", true},
		{"same size", "export const Button = 2\n", false},
		{"different size", "export {}\n", false},
	}
	for _, tt := range tests {
		got, err := matchesFile(path, []byte(tt.data))
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: matchesFile = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMatchesFileMissing(t *testing.T) {
	_, err := matchesFile(filepath.Join(t.TempDir(), "nope.ts"), nil)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want fs.ErrNotExist", err)
	}
}
