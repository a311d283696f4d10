package localbackend

import (
	"strconv"
	"testing"
	"time"
)

func recv(t *testing.T, ch <-chan string) (string, bool) {
	t.Helper()
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return "", false
	}
}

func TestBroadcasterPublish(t *testing.T) {
	b := NewBroadcaster()
	a := b.Subscribe()
	c := b.Subscribe()
	if b.Count() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", b.Count())
	}

	b.Publish("abc")
	for i, ch := range []<-chan string{a, c} {
		if got, _ := recv(t, ch); got != "abc" {
			t.Errorf("subscriber %d: expected abc, got %q", i, got)
		}
	}

	b.Unsubscribe(a)
	b.Unsubscribe(a)
	if _, ok := recv(t, a); ok {
		t.Error("expected closed channel after unsubscribe")
	}
	if b.Count() != 1 {
		t.Errorf("expected 1 subscriber, got %d", b.Count())
	}
}

func TestBroadcasterDeliversBurstToSlowConsumer(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	const n = 1000
	for i := 0; i < n; i++ {
		b.Publish(strconv.Itoa(i))
	}
	for i := 0; i < n; i++ {
		got, ok := recv(t, ch)
		if !ok || got != strconv.Itoa(i) {
			t.Fatalf("event %d: expected %d, got %q (open=%v)", i, i, got, ok)
		}
	}
}

func TestBroadcasterUnsubscribeWithQueuedEvents(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	for i := 0; i < 10; i++ {
		b.Publish("x")
	}
	b.Unsubscribe(ch)

	// Queued events may still arrive before the close
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after unsubscribe")
		}
	}
}
