package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/justyntemme/orbit/internal/debug"
	"github.com/justyntemme/orbit/internal/metrics"
)

// Client is a typed, library-scoped view of a Transport.
type Client struct {
	t       Transport
	library uuid.UUID
}

// NewClient scopes calls over t to library.
func NewClient(t Transport, library uuid.UUID) *Client {
	return &Client{t: t, library: library}
}

// Library returns the library every call is scoped to.
func (c *Client) Library() uuid.UUID { return c.library }

func (c *Client) envelope(arg any) (json.RawMessage, error) {
	raw := json.RawMessage("null")
	if arg != nil {
		b, err := json.Marshal(arg)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(LibraryArgs{LibraryID: c.library.String(), Arg: raw})
}

func (c *Client) call(ctx context.Context, kind Kind, procedure string, arg, out any) error {
	args, err := c.envelope(arg)
	if err != nil {
		return err
	}
	debug.Log(debug.RPC_WIRE, "%s %s %s", kind, procedure, args)

	var res json.RawMessage
	switch kind {
	case KindQuery:
		res, err = c.t.Query(ctx, procedure, args)
	default:
		res, err = c.t.Mutation(ctx, procedure, args)
	}
	metrics.RecordRPCCall(procedure, string(kind), err)
	if err != nil {
		debug.Log(debug.RPC, "%s %s failed: %v", kind, procedure, err)
		return asFailure(procedure, err)
	}
	if out == nil || len(res) == 0 {
		return nil
	}
	if err := json.Unmarshal(res, out); err != nil {
		return &Failure{Procedure: procedure, Reason: "malformed response", Err: err}
	}
	return nil
}

// asFailure keeps context cancellation visible and reports everything else as
// a Failure of procedure.
func asFailure(procedure string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Procedure: procedure, Reason: err.Error(), Err: err}
}

// ListLocations runs locations.list.
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	var locs []Location
	err := c.call(ctx, KindQuery, LocationsList, nil, &locs)
	return locs, err
}

// ExplorerData runs locations.getExplorerData.
func (c *Client) ExplorerData(ctx context.Context, locationID int, path string) (ExplorerData, error) {
	var data ExplorerData
	err := c.call(ctx, KindQuery, LocationsGetExplore, ExplorerDataArgs{LocationID: locationID, Path: path}, &data)
	return data, err
}

// HasMasterPassword runs keys.hasMasterPassword.
func (c *Client) HasMasterPassword(ctx context.Context) (bool, error) {
	var has bool
	err := c.call(ctx, KindQuery, KeysHasMasterPass, nil, &has)
	return has, err
}

// SetMasterPassword runs keys.setMasterPassword. It is not safe to retry.
func (c *Client) SetMasterPassword(ctx context.Context, password, secretKey string) error {
	return c.call(ctx, KindMutation, KeysSetMasterPass, Credentials{Password: password, SecretKey: secretKey}, nil)
}

// UnmountAll runs keys.unmountAll.
func (c *Client) UnmountAll(ctx context.Context) error {
	return c.call(ctx, KindMutation, KeysUnmountAll, nil, nil)
}

// ClearMasterPassword runs keys.clearMasterPassword.
func (c *Client) ClearMasterPassword(ctx context.Context) error {
	return c.call(ctx, KindMutation, KeysClearMasterPass, nil, nil)
}

// SubscribeNewThumbnail opens jobs.newThumbnail for the client's library with
// a null argument.
func (c *Client) SubscribeNewThumbnail(ctx context.Context) (*ThumbnailStream, error) {
	args, err := c.envelope(nil)
	if err != nil {
		return nil, err
	}
	sub, err := c.t.Subscribe(ctx, JobsNewThumbnail, args)
	metrics.RecordRPCCall(JobsNewThumbnail, string(KindSubscription), err)
	if err != nil {
		return nil, asFailure(JobsNewThumbnail, err)
	}
	metrics.SubscriptionOpened()
	debug.Log(debug.RPC, "subscribed %s library=%s", JobsNewThumbnail, c.library)
	return &ThumbnailStream{sub: sub}, nil
}

// ThumbnailStream yields content addresses of newly generated thumbnails.
type ThumbnailStream struct {
	sub  Subscription
	once sync.Once
}

// Recv blocks for the next content address. ok is false once the stream is
// closed or ctx is done. Undecodable events are skipped.
func (s *ThumbnailStream) Recv(ctx context.Context) (casID string, ok bool) {
	for {
		select {
		case <-ctx.Done():
			return "", false
		case raw, open := <-s.sub.Events():
			if !open {
				return "", false
			}
			if err := json.Unmarshal(raw, &casID); err != nil || casID == "" {
				debug.Log(debug.RPC, "%s: dropping event %s: %v", JobsNewThumbnail, raw, err)
				continue
			}
			return casID, true
		}
	}
}

// Close unsubscribes. Safe to call more than once.
func (s *ThumbnailStream) Close() {
	s.once.Do(func() {
		s.sub.Unsubscribe()
		metrics.SubscriptionClosed()
		debug.Log(debug.RPC, "unsubscribed %s", JobsNewThumbnail)
	})
}
