package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExplicitFile(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
library_id: 3f2504e0-4f89-41d3-9a0c-0305e82c3301
locations:
  - path: /srv/media
thumbnails:
  max_pixels: 128
platform:
  thumbnail_scheme: orbit
hotkeys:
  back: Ctrl+B
`)
	m := NewManager()
	if err := m.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.ParseError() != nil {
		t.Fatalf("unexpected parse error: %v", m.ParseError())
	}
	cfg := m.Get()

	if cfg.LibraryID != "3f2504e0-4f89-41d3-9a0c-0305e82c3301" {
		t.Errorf("library_id: got %q", cfg.LibraryID)
	}
	if len(cfg.Locations) != 1 || cfg.Locations[0].Name != "media" {
		t.Errorf("locations: expected one named from its path, got %+v", cfg.Locations)
	}
	if cfg.Thumbnails.MaxPixels != 128 {
		t.Errorf("max_pixels: got %d", cfg.Thumbnails.MaxPixels)
	}
	if cfg.Thumbnails.Workers != DefaultConfig().Thumbnails.Workers {
		t.Errorf("workers should keep its default, got %d", cfg.Thumbnails.Workers)
	}
	if cfg.Platform.ThumbnailScheme != "orbit" {
		t.Errorf("thumbnail_scheme: got %q", cfg.Platform.ThumbnailScheme)
	}
	if cfg.Hotkeys.Back != "Ctrl+B" {
		t.Errorf("hotkeys.back: got %q", cfg.Hotkeys.Back)
	}
	if cfg.Hotkeys.Escape != DefaultHotkeys().Escape {
		t.Errorf("hotkeys.escape should keep its default, got %q", cfg.Hotkeys.Escape)
	}
	if m.Path() != path {
		t.Errorf("Path: expected %q, got %q", path, m.Path())
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	m := NewManager()
	err := m.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadParseErrorFallsBackToDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", "locations: [unterminated\n")
	m := NewManager()
	if err := m.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !errors.Is(m.ParseError(), ErrConfigInvalid) {
		t.Errorf("expected ErrConfigInvalid parse error, got %v", m.ParseError())
	}
	if got := m.Get().Thumbnails.MaxPixels; got != DefaultConfig().Thumbnails.MaxPixels {
		t.Errorf("expected defaults, max_pixels %d", got)
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad library id", func(c *Config) { c.LibraryID = "not-a-uuid" }, true},
		{"location without path", func(c *Config) { c.Locations = []LocationConfig{{Name: "x"}} }, true},
		{"unknown scheme", func(c *Config) { c.Platform.ThumbnailScheme = "http" }, true},
		{"empty scheme", func(c *Config) { c.Platform.ThumbnailScheme = "" }, false},
		{"zero sizes", func(c *Config) { c.Thumbnails.MaxPixels, c.Thumbnails.Workers, c.Explorer.RowHeight = 0, 0, 0 }, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := DefaultConfig()
			tc.mutate(c)
			err := c.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate: wantErr=%v, got %v", tc.wantErr, err)
			}
			if err != nil {
				if !errors.Is(err, ErrConfigInvalid) {
					t.Errorf("expected ErrConfigInvalid, got %v", err)
				}
				return
			}
			if c.Platform.ThumbnailScheme == "" || c.Thumbnails.MaxPixels <= 0 || c.Thumbnails.Workers <= 0 || c.Explorer.RowHeight <= 0 {
				t.Errorf("derived defaults not filled: %+v", c)
			}
		})
	}
}

func TestLibraryStable(t *testing.T) {
	c := DefaultConfig()
	first := c.Library()
	if second := c.Library(); second != first {
		t.Errorf("generated library id changed: %s then %s", first, second)
	}
}
