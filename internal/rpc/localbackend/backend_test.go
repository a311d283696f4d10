package localbackend

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/justyntemme/orbit/internal/config"
	"github.com/justyntemme/orbit/internal/platform"
	"github.com/justyntemme/orbit/internal/rpc"
	"github.com/justyntemme/orbit/internal/store"
)

type testEnv struct {
	backend  *Backend
	client   *rpc.Client
	db       *store.DB
	root     string
	thumbDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "orbit.db"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	root := t.TempDir()
	thumbDir := t.TempDir()
	lib := uuid.New()
	b := New(Options{
		Library:   lib,
		Locations: []config.LocationConfig{{Name: "home", Path: root}},
		ThumbDir:  thumbDir,
		MaxPixels: 64,
		Workers:   2,
	}, db)
	b.Start(context.Background())
	t.Cleanup(func() { b.Close() })

	return &testEnv{backend: b, client: rpc.NewClient(b, lib), db: db, root: root, thumbDir: thumbDir}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestWrongLibraryIsRejected(t *testing.T) {
	env := newTestEnv(t)
	other := rpc.NewClient(env.backend, uuid.New())

	_, err := other.ListLocations(context.Background())
	var f *rpc.Failure
	if !errors.As(err, &f) || f.Reason != "library not found" {
		t.Errorf("expected library not found failure, got %v", err)
	}

	if _, err := other.SubscribeNewThumbnail(context.Background()); err == nil {
		t.Error("expected subscription for another library to fail")
	}
}

func TestUnknownProcedure(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.backend.Query(context.Background(), "tags.list", nil); !errors.Is(err, rpc.ErrUnknownProcedure) {
		t.Errorf("expected ErrUnknownProcedure, got %v", err)
	}
	// Mutations are not reachable as queries
	if _, err := env.backend.Query(context.Background(), rpc.KeysUnmountAll, nil); !errors.Is(err, rpc.ErrUnknownProcedure) {
		t.Errorf("expected ErrUnknownProcedure for mutation via Query, got %v", err)
	}
}

func TestClosedBackend(t *testing.T) {
	env := newTestEnv(t)
	env.backend.Close()

	if _, err := env.client.ListLocations(context.Background()); !errors.Is(err, rpc.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestExplorerDataListing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := os.Mkdir(filepath.Join(env.root, "docs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(env.root, "b.TXT"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(env.root, "a.md"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(env.root, "docs", "nested.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	locs, err := env.client.ListLocations(ctx)
	if err != nil || len(locs) != 1 || locs[0].ID != 1 || locs[0].Name != "home" {
		t.Fatalf("unexpected locations %+v, %v", locs, err)
	}

	data, err := env.client.ExplorerData(ctx, 1, "")
	if err != nil {
		t.Fatalf("ExplorerData failed: %v", err)
	}
	if len(data.Items) != 3 {
		t.Fatalf("expected 3 direct children, got %d", len(data.Items))
	}

	first := data.Items[0].Path
	if first == nil || !first.IsDir || first.Name != "docs" {
		t.Errorf("expected docs directory first, got %+v", first)
	}
	a, b := data.Items[1].Path, data.Items[2].Path
	if a.Name != "a.md" || b.Name != "b.TXT" {
		t.Errorf("expected files sorted by name, got %s, %s", a.Name, b.Name)
	}
	if b.Extension != "txt" || b.MaterializedPath != "/b.TXT" {
		t.Errorf("unexpected file fields %+v", b)
	}
	// Same size and content: same cas id and object
	if a.CasID == "" || a.CasID != b.CasID || a.Object.ID != b.Object.ID {
		t.Errorf("expected identical content to share cas id, got %q/%q", a.CasID, b.CasID)
	}
	if a.ID == b.ID {
		t.Error("distinct paths must have distinct ids")
	}

	again, err := env.client.ExplorerData(ctx, 1, "")
	if err != nil {
		t.Fatalf("ExplorerData failed: %v", err)
	}
	if again.Items[1].Path.ID != a.ID {
		t.Error("path ids must be stable across listings")
	}

	nested, err := env.client.ExplorerData(ctx, 1, "/docs")
	if err != nil || len(nested.Items) != 1 || nested.Items[0].Path.MaterializedPath != "/docs/nested.txt" {
		t.Errorf("unexpected nested listing %+v, %v", nested, err)
	}
}

func TestExplorerDataRejectsBadLocations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	testCases := []struct {
		location int
		path     string
	}{
		{0, ""},
		{2, ""},
		{1, "../.."},
	}

	for _, tc := range testCases {
		_, err := env.client.ExplorerData(ctx, tc.location, tc.path)
		var f *rpc.Failure
		if !errors.As(err, &f) {
			t.Errorf("ExplorerData(%d, %q): expected failure, got %v", tc.location, tc.path, err)
		}
	}
}

func TestThumbnailPipeline(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, filepath.Join(env.root, "photo.png"), 200, 100)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := env.client.SubscribeNewThumbnail(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer stream.Close()

	data, err := env.client.ExplorerData(ctx, 1, "")
	if err != nil {
		t.Fatalf("ExplorerData failed: %v", err)
	}
	item := data.Items[0].Path
	if item.Object == nil || item.Object.HasThumbnail {
		t.Fatalf("expected object without thumbnail, got %+v", item.Object)
	}

	cas, ok := stream.Recv(ctx)
	if !ok {
		t.Fatal("stream ended before the thumbnail event")
	}
	if cas != item.CasID {
		t.Errorf("expected event for %s, got %s", item.CasID, cas)
	}

	f, err := os.Open(platform.ThumbnailPath(env.thumbDir, cas))
	if err != nil {
		t.Fatalf("thumbnail not written: %v", err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("thumbnail is not a jpeg: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("expected 64x32 thumbnail, got %dx%d", b.Dx(), b.Dy())
	}

	data, err = env.client.ExplorerData(ctx, 1, "")
	if err != nil {
		t.Fatalf("ExplorerData failed: %v", err)
	}
	if !data.Items[0].Path.Object.HasThumbnail {
		t.Error("expected refetched listing to report the thumbnail")
	}
}

func TestUnsubscribeEndsStream(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sub, err := env.backend.Subscribe(ctx, rpc.JobsNewThumbnail, mustEnvelope(t, env))
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	sub.Unsubscribe()
	sub.Unsubscribe()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("expected no events after unsubscribe")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after unsubscribe")
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.backend.events.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber not removed from broadcaster")
		}
		time.Sleep(time.Millisecond)
	}
}

func mustEnvelope(t *testing.T, env *testEnv) []byte {
	t.Helper()
	return []byte(`{"library_id":"` + env.client.Library().String() + `","arg":null}`)
}

func TestScaleThumbnail(t *testing.T) {
	testCases := []struct {
		w, h         int
		maxPixels    int
		wantW, wantH int
	}{
		{100, 50, 200, 100, 50},
		{400, 200, 100, 100, 50},
		{200, 400, 100, 50, 100},
		{1000, 1, 100, 100, 1},
	}

	for _, tc := range testCases {
		src := image.NewRGBA(image.Rect(0, 0, tc.w, tc.h))
		got := scaleThumbnail(src, tc.maxPixels).Bounds()
		if got.Dx() != tc.wantW || got.Dy() != tc.wantH {
			t.Errorf("scale %dx%d to %d: expected %dx%d, got %dx%d",
				tc.w, tc.h, tc.maxPixels, tc.wantW, tc.wantH, got.Dx(), got.Dy())
		}
	}
}

func TestAddLocation(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()

	loc := env.backend.AddLocation(dir)
	if loc.ID != 2 || loc.Name != filepath.Base(dir) {
		t.Errorf("unexpected location %+v", loc)
	}
	locs, err := env.client.ListLocations(context.Background())
	if err != nil || len(locs) != 2 {
		t.Fatalf("expected 2 locations, got %v, %v", locs, err)
	}
	if _, err := env.client.ExplorerData(context.Background(), 2, ""); err != nil {
		t.Errorf("expected new location to be listable, got %v", err)
	}
}
