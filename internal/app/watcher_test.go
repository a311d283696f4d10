package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDirectoryWatcherNotifiesFollowedDir(t *testing.T) {
	dw, err := NewDirectoryWatcher(20)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer dw.Close()

	first, second := t.TempDir(), t.TempDir()
	if err := dw.Follow(first); err != nil {
		t.Fatalf("Follow(%q): %v", first, err)
	}
	if err := dw.Follow(second); err != nil {
		t.Fatalf("Follow(%q): %v", second, err)
	}

	// Changes in a directory no longer followed are ignored
	if err := os.WriteFile(filepath.Join(first, "old.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(second, "new.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case dir := <-dw.Notify():
		if dir != second {
			t.Errorf("expected notification for %q, got %q", second, dir)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestDirectoryWatcherCloseIdempotent(t *testing.T) {
	dw, err := NewDirectoryWatcher(0)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	if err := dw.Follow(""); err != nil {
		t.Errorf("Follow(\"\"): %v", err)
	}
	if err := dw.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := dw.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
