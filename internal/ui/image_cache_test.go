package ui

import (
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
}

func TestImageCacheDecodesAndEvicts(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "b.jpg")
	writeJPEG(t, a, 80, 40)
	writeJPEG(t, b, 10, 10)

	loaded := make(chan struct{}, 4)
	c := NewImageCache(1, 32, 1, func() { loaded <- struct{}{} })
	defer c.Close()

	wait := func() {
		t.Helper()
		select {
		case <-loaded:
		case <-time.After(5 * time.Second):
			t.Fatal("image was not decoded")
		}
	}

	c.Want(a)
	wait()
	_, size, ok := c.Lookup(a)
	if !ok || size != image.Pt(80, 40) {
		t.Fatalf("expected a cached with source size 80x40, got %v %v", size, ok)
	}

	c.Want(b)
	wait()
	if _, _, ok := c.Lookup(a); ok {
		t.Error("expected a to be evicted at capacity 1")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}

func TestImageCacheRemembersFailures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.jpg")

	loaded := make(chan struct{}, 1)
	c := NewImageCache(4, 32, 1, func() { loaded <- struct{}{} })
	defer c.Close()

	c.Want(path)
	deadline := time.Now().Add(5 * time.Second)
	for {
		c.mu.Lock()
		_, failed := c.failed[path]
		c.mu.Unlock()
		if failed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("missing file was not recorded as failed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	writeJPEG(t, path, 8, 8)
	c.Want(path)
	if _, _, ok := c.Lookup(path); ok {
		t.Fatal("failed path should not be retried before Forget")
	}

	c.Forget(path)
	c.Want(path)
	select {
	case <-loaded:
	case <-time.After(5 * time.Second):
		t.Fatal("image was not decoded after Forget")
	}
	if _, _, ok := c.Lookup(path); !ok {
		t.Error("expected image after Forget and Want")
	}
}

func TestFitWithin(t *testing.T) {
	testCases := []struct {
		w, h, edge int
		expected   image.Point
	}{
		{10, 10, 32, image.Pt(10, 10)},
		{80, 40, 32, image.Pt(32, 16)},
		{40, 80, 32, image.Pt(16, 32)},
		{1000, 1, 32, image.Pt(32, 1)},
	}
	for _, tc := range testCases {
		got := fitWithin(image.NewRGBA(image.Rect(0, 0, tc.w, tc.h)), tc.edge).Bounds().Size()
		if got != tc.expected {
			t.Errorf("fitWithin(%dx%d, %d): expected %v, got %v", tc.w, tc.h, tc.edge, tc.expected, got)
		}
	}
}

func TestImageCacheCloseIsIdempotent(t *testing.T) {
	c := NewImageCache(4, 32, 2, nil)
	c.Close()
	c.Close()
	if _, _, ok := c.Lookup("/nonexistent.jpg"); ok {
		t.Error("expected miss")
	}
}
