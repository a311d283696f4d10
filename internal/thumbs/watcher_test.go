package thumbs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/justyntemme/orbit/internal/rpc"
	"github.com/justyntemme/orbit/internal/rpc/rpctest"
)

type failingSource struct{ err error }

func (f failingSource) SubscribeNewThumbnail(context.Context) (*rpc.ThumbnailStream, error) {
	return nil, f.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcherFeedsCache(t *testing.T) {
	fake := rpctest.New()
	client := rpc.NewClient(fake, uuid.New())
	cache := NewCache(nil)

	w, err := Watch(context.Background(), client, cache)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Stop()

	sub := fake.Subs(rpc.JobsNewThumbnail)[0]
	// Not part of any listing yet; stored anyway
	sub.Push("unseen")
	sub.Push("abc")
	sub.Push("abc")

	waitFor(t, func() bool { return cache.Has("abc") && cache.Has("unseen") })
	if cache.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", cache.Len())
	}
}

func TestWatcherStopPreventsLateWrites(t *testing.T) {
	fake := rpctest.New()
	client := rpc.NewClient(fake, uuid.New())
	cache := NewCache(nil)

	w, err := Watch(context.Background(), client, cache)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	sub := fake.Subs(rpc.JobsNewThumbnail)[0]

	w.Stop()
	cache.Close()
	w.Stop()

	select {
	case <-w.Done():
	default:
		t.Fatal("Stop returned before the watcher goroutine exited")
	}
	if !sub.Closed() {
		t.Error("expected Stop to unsubscribe")
	}
	if sub.Push("late") {
		t.Error("late event delivered to a released subscription")
	}
	if cache.Has("late") || cache.Len() != 0 {
		t.Error("torn-down cache was mutated")
	}
}

func TestWatchReleasesOnSetupError(t *testing.T) {
	want := errors.New("no transport")
	w, err := Watch(context.Background(), failingSource{err: want}, NewCache(nil))
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if w != nil {
		t.Error("expected nil watcher on error")
	}
}

func TestWatcherEndsWithParentContext(t *testing.T) {
	fake := rpctest.New()
	client := rpc.NewClient(fake, uuid.New())
	ctx, cancel := context.WithCancel(context.Background())

	w, err := Watch(ctx, client, NewCache(nil))
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	cancel()

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not exit after context cancellation")
	}
	w.Stop()
}
