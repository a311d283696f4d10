package localbackend

import (
	"sync"
)

// Broadcaster fans thumbnail-ready cas ids out to subscribers. Every
// subscriber gets every event published while it is subscribed: each has its
// own unbounded queue drained by a pump goroutine, so a slow reader delays
// only itself and never loses events.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[<-chan string]*subscriber
}

type subscriber struct {
	mu    sync.Mutex
	queue []string

	wake chan struct{} // cap 1; a pending wake-up covers any number of appends
	out  chan string
	done chan struct{}
}

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[<-chan string]*subscriber),
	}
}

// Subscribe adds a new subscriber and returns its channel.
// The caller must call Unsubscribe when done.
func (b *Broadcaster) Subscribe() <-chan string {
	s := &subscriber{
		wake: make(chan struct{}, 1),
		out:  make(chan string),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.subscribers[s.out] = s
	b.mu.Unlock()
	go s.pump()
	return s.out
}

// Unsubscribe removes a subscriber; its channel is closed once the pump
// exits. Queued events are discarded. Unknown channels are ignored.
func (b *Broadcaster) Unsubscribe(ch <-chan string) {
	b.mu.Lock()
	s, ok := b.subscribers[ch]
	delete(b.subscribers, ch)
	b.mu.Unlock()
	if ok {
		close(s.done)
	}
}

// Publish queues casID for every subscriber. It never blocks on a reader.
func (b *Broadcaster) Publish(casID string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subscribers {
		s.mu.Lock()
		s.queue = append(s.queue, casID)
		s.mu.Unlock()
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (s *subscriber) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, cas := range batch {
			select {
			case s.out <- cas:
			case <-s.done:
				return
			}
		}

		select {
		case <-s.wake:
		case <-s.done:
			return
		}
	}
}
