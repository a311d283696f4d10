package explorer

import (
	"testing"

	"github.com/justyntemme/orbit/internal/thumbs"
)

type setCache map[string]bool

func (s setCache) Has(cas string) bool { return s[cas] }

type urlFunc func(string) string

func (f urlFunc) ThumbnailURL(cas string) string { return f(cas) }

var allURLs = urlFunc(func(cas string) string { return "orbit://thumbnail/" + cas })
var noURLs = urlFunc(func(string) string { return "" })

func TestDirectoryNeverHasThumbnail(t *testing.T) {
	caches := []setCache{{}, {"abc": true}}
	dirs := []*Path{
		{ID: 1, IsDir: true},
		{ID: 2, IsDir: true, Cas: "abc"},
		{ID: 3, IsDir: true, Object: &Object{Cas: "abc", HasThumbnail: true}},
	}

	for _, cache := range caches {
		for _, d := range dirs {
			if HasThumbnail(d, cache) {
				t.Errorf("HasThumbnail(dir %d, %v): expected false", d.ID, cache)
			}
			if got := ResolveThumb(d, cache, allURLs); got.Source != ThumbFolder {
				t.Errorf("ResolveThumb(dir %d): expected folder, got %s", d.ID, got.Source)
			}
		}
	}
}

func TestHasThumbnailResolution(t *testing.T) {
	cache := setCache{"cached": true}

	testCases := []struct {
		name     string
		item     Item
		expected bool
	}{
		{"object confirmed", &Object{Cas: "x", HasThumbnail: true}, true},
		{"object cache hit", &Object{Cas: "cached"}, true},
		{"object neither", &Object{Cas: "x"}, false},
		{"object no cas", &Object{HasThumbnail: true}, false},
		{"path nested confirmed", &Path{Object: &Object{Cas: "x", HasThumbnail: true}}, true},
		{"path nested stale, cache hit", &Path{Object: &Object{Cas: "cached"}}, true},
		{"path nested stale, no hit", &Path{Object: &Object{Cas: "x"}}, false},
		{"path no object, own cas cached", &Path{Cas: "cached"}, true},
		{"path no object, no cas", &Path{}, false},
	}

	for _, tc := range testCases {
		if got := HasThumbnail(tc.item, cache); got != tc.expected {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}

func TestResolveThumbFallbackOrder(t *testing.T) {
	cache := setCache{"ready": true}

	testCases := []struct {
		name   string
		item   Item
		urls   URLResolver
		source ThumbSource
		icon   string
	}{
		{"image", &Object{Cas: "ready", Ext: "png"}, allURLs, ThumbImage, ""},
		{"ready but no url, video", &Object{Cas: "ready", Ext: "mp4"}, noURLs, ThumbKind, "video"},
		{"video kind from backend", &Object{Cas: "x", Kind: KindVideo}, allURLs, ThumbKind, "video"},
		{"zip", &Path{Name: "a.zip", Ext: "zip"}, allURLs, ThumbKind, "zip"},
		{"extension icon", &Path{Name: "main.go", Ext: "go"}, allURLs, ThumbExtension, "go"},
		{"generic", &Path{Name: "blob", Ext: "weird"}, allURLs, ThumbGeneric, "file"},
		{"no extension", &Path{Name: "README"}, allURLs, ThumbGeneric, "file"},
	}

	for _, tc := range testCases {
		got := ResolveThumb(tc.item, cache, tc.urls)
		if got.Source != tc.source {
			t.Errorf("%s: expected source %s, got %s", tc.name, tc.source, got.Source)
		}
		if tc.icon != "" && got.Icon != tc.icon {
			t.Errorf("%s: expected icon %q, got %q", tc.name, tc.icon, got.Icon)
		}
	}

	img := ResolveThumb(&Object{Cas: "ready"}, cache, allURLs)
	if img.URL != "orbit://thumbnail/ready" {
		t.Errorf("expected thumbnail URL, got %q", img.URL)
	}
}

func TestPushEventUpgradesStaleSnapshot(t *testing.T) {
	listing := Listing{Items: []Item{
		&Path{ID: 1, IsDir: true},
		&Object{ID: 2, Cas: "abc", HasThumbnail: false},
	}}
	cache := thumbs.NewCache(nil)

	if HasThumbnail(listing.Items[1], cache) {
		t.Fatal("item 2 should not resolve a thumbnail before the push event")
	}

	cache.MarkReady("abc")

	if !HasThumbnail(listing.Items[1], cache) {
		t.Error("item 2 should resolve a thumbnail via the cache after MarkReady")
	}
	if HasThumbnail(listing.Items[0], cache) {
		t.Error("directory must still not resolve a thumbnail")
	}

	// A re-fetched snapshot does not conflict with the cache
	refetched := Listing{Items: []Item{&Object{ID: 2, Cas: "abc", HasThumbnail: true}}}
	if !HasThumbnail(refetched.Items[0], cache) {
		t.Error("refetched item should resolve a thumbnail")
	}
}

func TestKindFromExtension(t *testing.T) {
	testCases := []struct {
		ext      string
		expected ObjectKind
	}{
		{"mp4", KindVideo},
		{".MOV", KindVideo},
		{"zip", KindArchive},
		{"png", KindImage},
		{"", KindUnknown},
		{"nope", KindUnknown},
	}

	for _, tc := range testCases {
		if got := KindFromExtension(tc.ext); got != tc.expected {
			t.Errorf("KindFromExtension(%q): expected %s, got %s", tc.ext, tc.expected, got)
		}
	}
}
