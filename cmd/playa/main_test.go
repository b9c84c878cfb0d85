package main

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte{}, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverSequenceFindsRange(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "plate.0001.png")
	touch(t, dir, "plate.0002.png")
	touch(t, dir, "plate.0005.png")
	touch(t, dir, "notes.txt")

	pattern, in, out, err := discoverSequence(filepath.Join(dir, "plate.0001.png"), 0)
	if err != nil {
		t.Fatalf("discoverSequence: %v", err)
	}
	if in != 1 || out != 5 {
		t.Fatalf("range = [%d,%d], want [1,5]", in, out)
	}
	want := filepath.Join(dir, "plate.####.png")
	if pattern != want {
		t.Fatalf("pattern = %q, want %q", pattern, want)
	}
}

func TestDiscoverSequenceExplicitPaddingOverridesWidth(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "shot.01.png")
	touch(t, dir, "shot.02.png")

	pattern, _, _, err := discoverSequence(filepath.Join(dir, "shot.01.png"), 6)
	if err != nil {
		t.Fatalf("discoverSequence: %v", err)
	}
	want := filepath.Join(dir, "shot.######.png")
	if pattern != want {
		t.Fatalf("pattern = %q, want %q", pattern, want)
	}
}

func TestDiscoverSequenceRejectsNonSequencedName(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "readme.txt")

	if _, _, _, err := discoverSequence(filepath.Join(dir, "readme.txt"), 0); err == nil {
		t.Fatal("expected an error for a name with no frame-index suffix")
	}
}

func TestDiscoverSequenceMissingDirErrors(t *testing.T) {
	if _, _, _, err := discoverSequence("/nonexistent/dir/plate.0001.png", 0); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
