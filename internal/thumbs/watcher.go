package thumbs

import (
	"context"
	"sync"

	"github.com/justyntemme/orbit/internal/debug"
	"github.com/justyntemme/orbit/internal/rpc"
)

// Source opens the library's newThumbnail stream.
type Source interface {
	SubscribeNewThumbnail(ctx context.Context) (*rpc.ThumbnailStream, error)
}

// Watcher copies newThumbnail events into a Cache for the life of a view.
// Acquire with Watch, release with Stop.
type Watcher struct {
	cancel context.CancelFunc
	stream *rpc.ThumbnailStream
	done   chan struct{}
	once   sync.Once
}

// Watch subscribes and starts feeding cache. On error nothing is left running.
func Watch(ctx context.Context, src Source, cache *Cache) (*Watcher, error) {
	ctx, cancel := context.WithCancel(ctx)
	stream, err := src.SubscribeNewThumbnail(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	w := &Watcher{cancel: cancel, stream: stream, done: make(chan struct{})}
	go w.run(ctx, cache)
	return w, nil
}

func (w *Watcher) run(ctx context.Context, cache *Cache) {
	defer close(w.done)
	for {
		cas, ok := w.stream.Recv(ctx)
		if !ok {
			debug.Log(debug.THUMB, "watcher: stream ended")
			return
		}
		// Stop may have raced with this event
		if ctx.Err() != nil {
			return
		}
		cache.MarkReady(cas)
	}
}

// Stop unsubscribes and waits for the feeding goroutine to exit. Once it
// returns no further write reaches the cache. Idempotent.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		w.cancel()
		w.stream.Close()
		<-w.done
	})
}

// Done is closed when the feeding goroutine exits.
func (w *Watcher) Done() <-chan struct{} { return w.done }
