// Package rpctest provides an in-memory rpc.Transport for tests.
package rpctest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/justyntemme/orbit/internal/rpc"
)

// Handler answers one call. arg is the decoded envelope's Arg.
type Handler func(ctx context.Context, arg json.RawMessage) (any, error)

// Call records one query or mutation.
type Call struct {
	Kind      rpc.Kind
	Procedure string
	Args      rpc.LibraryArgs
}

// Fake is a scripted transport. Procedures without a handler fail with
// rpc.ErrUnknownProcedure.
type Fake struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
	subs     map[string][]*Sub
	// Gate, when set, blocks mutations until it is closed.
	Gate chan struct{}
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		handlers: make(map[string]Handler),
		subs:     make(map[string][]*Sub),
	}
}

// Handle installs h for procedure.
func (f *Fake) Handle(procedure string, h Handler) {
	f.mu.Lock()
	f.handlers[procedure] = h
	f.mu.Unlock()
}

// Return installs a handler that always returns v, err.
func (f *Fake) Return(procedure string, v any, err error) {
	f.Handle(procedure, func(context.Context, json.RawMessage) (any, error) { return v, err })
}

// Calls returns the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many times procedure was called.
func (f *Fake) CallCount(procedure string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Procedure == procedure {
			n++
		}
	}
	return n
}

func (f *Fake) do(ctx context.Context, kind rpc.Kind, procedure string, args json.RawMessage) (json.RawMessage, error) {
	var env rpc.LibraryArgs
	if err := json.Unmarshal(args, &env); err != nil {
		return nil, fmt.Errorf("rpctest: bad envelope: %w", err)
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Kind: kind, Procedure: procedure, Args: env})
	h, ok := f.handlers[procedure]
	gate := f.Gate
	f.mu.Unlock()

	if kind == rpc.KindMutation && gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, rpc.ErrUnknownProcedure
	}
	v, err := h(ctx, env.Arg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func (f *Fake) Query(ctx context.Context, procedure string, args json.RawMessage) (json.RawMessage, error) {
	return f.do(ctx, rpc.KindQuery, procedure, args)
}

func (f *Fake) Mutation(ctx context.Context, procedure string, args json.RawMessage) (json.RawMessage, error) {
	return f.do(ctx, rpc.KindMutation, procedure, args)
}

func (f *Fake) Subscribe(ctx context.Context, procedure string, args json.RawMessage) (rpc.Subscription, error) {
	var env rpc.LibraryArgs
	if err := json.Unmarshal(args, &env); err != nil {
		return nil, err
	}
	s := &Sub{Args: env, ch: make(chan json.RawMessage, 64), done: make(chan struct{})}
	f.mu.Lock()
	f.subs[procedure] = append(f.subs[procedure], s)
	f.mu.Unlock()
	go func() {
		select {
		case <-ctx.Done():
			s.Unsubscribe()
		case <-s.done:
		}
	}()
	return s, nil
}

// Subs returns the subscriptions opened for procedure.
func (f *Fake) Subs(procedure string) []*Sub {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Sub(nil), f.subs[procedure]...)
}

// Sub is a fake subscription fed by Push.
type Sub struct {
	Args rpc.LibraryArgs

	mu     sync.Mutex
	ch     chan json.RawMessage
	done   chan struct{}
	closed bool
}

func (s *Sub) Events() <-chan json.RawMessage { return s.ch }

// Unsubscribe closes the event channel. Idempotent.
func (s *Sub) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	close(s.ch)
}

// Push encodes v and delivers it. It reports false if the subscription is
// already closed.
func (s *Sub) Push(v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.ch <- b
	return true
}

// Closed reports whether Unsubscribe ran.
func (s *Sub) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
