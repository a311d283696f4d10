// Package localbackend is an in-process library backend for development. It
// indexes local directories, renders image thumbnails and keeps a key vault,
// and serves all of it through rpc.Transport.
package localbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justyntemme/orbit/internal/config"
	"github.com/justyntemme/orbit/internal/debug"
	"github.com/justyntemme/orbit/internal/logging"
	"github.com/justyntemme/orbit/internal/rpc"
	"github.com/justyntemme/orbit/internal/store"
)

// Options configures a Backend.
type Options struct {
	Library   uuid.UUID
	Locations []config.LocationConfig
	ThumbDir  string
	MaxPixels int
	Workers   int
	// ScanOnStart queues thumbnails for every image under every location.
	ScanOnStart bool
}

// OptionsFromConfig builds Options from a validated config.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Library:     cfg.Library(),
		Locations:   cfg.Locations,
		ThumbDir:    cfg.Thumbnails.Dir,
		MaxPixels:   cfg.Thumbnails.MaxPixels,
		Workers:     cfg.Thumbnails.Workers,
		ScanOnStart: true,
	}
}

type handler func(ctx context.Context, arg json.RawMessage) (any, error)

// Backend implements rpc.Transport.
type Backend struct {
	opts   Options
	index  *index
	keys   *keyStore
	thumbs *thumbnailer
	events *Broadcaster

	queries   map[string]handler
	mutations map[string]handler

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a backend. db holds the vault verifier and registered keys.
func New(opts Options, db *store.DB) *Backend {
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = 256
	}
	b := &Backend{
		opts:   opts,
		index:  newIndex(opts.Locations),
		keys:   newKeyStore(db),
		events: NewBroadcaster(),
		done:   make(chan struct{}),
	}
	b.thumbs = newThumbnailer(opts.ThumbDir, opts.MaxPixels, opts.Workers, b.thumbnailReady)

	b.queries = map[string]handler{
		rpc.LocationsList:       b.locationsList,
		rpc.LocationsGetExplore: b.getExplorerData,
		rpc.KeysHasMasterPass:   b.hasMasterPassword,
	}
	b.mutations = map[string]handler{
		rpc.KeysSetMasterPass:   b.setMasterPassword,
		rpc.KeysUnmountAll:      b.unmountAll,
		rpc.KeysClearMasterPass: b.clearMasterPassword,
	}
	return b
}

// Start runs the thumbnail workers and, if configured, the initial scan.
func (b *Backend) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()

	b.thumbs.Start(ctx)
	if !b.opts.ScanOnStart {
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.scan(ctx)
	}()
}

func (b *Backend) scan(ctx context.Context) {
	start := time.Now()
	var files atomic.Int64
	// fastwalk calls back from several goroutines
	err := b.index.scan(func(path string, size int64, modTime time.Time) {
		if ctx.Err() != nil {
			return
		}
		files.Add(1)
		ext := extOf(path)
		if !thumbnailable(ext) {
			return
		}
		rec, err := b.index.record(path, size, modTime)
		if err != nil {
			return
		}
		if !b.index.isReady(rec.cas) {
			b.thumbs.Request(path, rec.cas)
		}
	})
	if err != nil {
		logging.Named("backend").Warn("scan failed", zap.Error(err))
		return
	}
	logging.Named("backend").Info("scan complete",
		zap.Int64("files", files.Load()), zap.Duration("elapsed", time.Since(start)))
}

// Close stops the workers and ends every subscription.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	cancel := b.cancel
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	b.wg.Wait()
	b.thumbs.Wait()
	return nil
}

func (b *Backend) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// Query implements rpc.Transport.
func (b *Backend) Query(ctx context.Context, procedure string, args json.RawMessage) (json.RawMessage, error) {
	return b.dispatch(ctx, b.queries, procedure, args)
}

// Mutation implements rpc.Transport.
func (b *Backend) Mutation(ctx context.Context, procedure string, args json.RawMessage) (json.RawMessage, error) {
	return b.dispatch(ctx, b.mutations, procedure, args)
}

func (b *Backend) dispatch(ctx context.Context, table map[string]handler, procedure string, args json.RawMessage) (json.RawMessage, error) {
	if b.isClosed() {
		return nil, rpc.ErrClosed
	}
	h, ok := table[procedure]
	if !ok {
		return nil, fmt.Errorf("%w: %s", rpc.ErrUnknownProcedure, procedure)
	}
	arg, err := b.unwrap(procedure, args)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := h(ctx, arg)
	if err != nil {
		debug.Log(debug.BACKEND, "%s: %v", procedure, err)
		return nil, &rpc.Failure{Procedure: procedure, Reason: err.Error(), Err: err}
	}
	return json.Marshal(res)
}

// unwrap checks the library envelope and returns the inner argument.
func (b *Backend) unwrap(procedure string, args json.RawMessage) (json.RawMessage, error) {
	var env rpc.LibraryArgs
	if err := json.Unmarshal(args, &env); err != nil {
		return nil, &rpc.Failure{Procedure: procedure, Reason: "malformed arguments", Err: err}
	}
	if env.LibraryID != b.opts.Library.String() {
		return nil, &rpc.Failure{Procedure: procedure, Reason: "library not found"}
	}
	return env.Arg, nil
}

// Subscribe implements rpc.Transport. Only jobs.newThumbnail is served.
func (b *Backend) Subscribe(ctx context.Context, procedure string, args json.RawMessage) (rpc.Subscription, error) {
	if b.isClosed() {
		return nil, rpc.ErrClosed
	}
	if procedure != rpc.JobsNewThumbnail {
		return nil, fmt.Errorf("%w: %s", rpc.ErrUnknownProcedure, procedure)
	}
	if _, err := b.unwrap(procedure, args); err != nil {
		return nil, err
	}

	s := &subscription{
		b:      b,
		src:    b.events.Subscribe(),
		events: make(chan json.RawMessage, 64),
		stop:   make(chan struct{}),
	}
	go s.forward(ctx)
	debug.Log(debug.BACKEND, "subscribe %s (%d subscribers)", procedure, b.events.Count())
	return s, nil
}

// thumbnailReady runs on a worker once a thumbnail is on disk.
func (b *Backend) thumbnailReady(cas string) {
	b.index.markReady(cas)
	b.events.Publish(cas)
}

// RequestThumbnail queues path for rendering under cas.
func (b *Backend) RequestThumbnail(path, cas string) {
	b.thumbs.Request(path, cas)
}

// AddLocation adds a directory to the library for the rest of the session.
func (b *Backend) AddLocation(path string) rpc.Location {
	loc := b.index.addLocation(config.LocationConfig{Name: filepath.Base(path), Path: path})
	logging.Named("backend").Info("location added", zap.Int("id", loc.ID), zap.String("path", path))
	return loc
}

// Mounted reports the number of mounted keys.
func (b *Backend) Mounted() int { return b.keys.Mounted() }

func (b *Backend) locationsList(context.Context, json.RawMessage) (any, error) {
	return b.index.Locations(), nil
}

func (b *Backend) getExplorerData(_ context.Context, arg json.RawMessage) (any, error) {
	var args rpc.ExplorerDataArgs
	if err := json.Unmarshal(arg, &args); err != nil {
		return nil, err
	}
	return b.index.explorerData(args, b.thumbs.Request)
}

func (b *Backend) hasMasterPassword(context.Context, json.RawMessage) (any, error) {
	return b.keys.HasMasterPassword(), nil
}

func (b *Backend) setMasterPassword(ctx context.Context, arg json.RawMessage) (any, error) {
	var c rpc.Credentials
	if err := json.Unmarshal(arg, &c); err != nil {
		return nil, err
	}
	return nil, b.keys.SetMasterPassword(ctx, c)
}

func (b *Backend) unmountAll(context.Context, json.RawMessage) (any, error) {
	b.keys.UnmountAll()
	return nil, nil
}

func (b *Backend) clearMasterPassword(context.Context, json.RawMessage) (any, error) {
	b.keys.ClearMasterPassword()
	return nil, nil
}

// subscription forwards broadcaster events as JSON until unsubscribed, the
// caller's context ends or the backend closes.
type subscription struct {
	b      *Backend
	src    <-chan string
	events chan json.RawMessage
	stop   chan struct{}
	once   sync.Once
}

func (s *subscription) Events() <-chan json.RawMessage { return s.events }

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { close(s.stop) })
}

func (s *subscription) forward(ctx context.Context) {
	defer close(s.events)
	defer s.b.events.Unsubscribe(s.src)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-s.b.done:
			return
		case cas, ok := <-s.src:
			if !ok {
				return
			}
			raw, err := json.Marshal(cas)
			if err != nil {
				continue
			}
			select {
			case s.events <- raw:
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-s.b.done:
				return
			}
		}
	}
}
