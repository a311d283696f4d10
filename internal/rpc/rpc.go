// Package rpc is the client side of the query/mutation/subscription boundary
// to the library backend. Arguments and results cross the boundary as JSON.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Procedure names understood by the backend.
const (
	LocationsList       = "locations.list"
	LocationsGetExplore = "locations.getExplorerData"
	KeysHasMasterPass   = "keys.hasMasterPassword"
	KeysSetMasterPass   = "keys.setMasterPassword"
	KeysUnmountAll      = "keys.unmountAll"
	KeysClearMasterPass = "keys.clearMasterPassword"
	JobsNewThumbnail    = "jobs.newThumbnail"
)

// Kind is the kind of procedure call.
type Kind string

const (
	KindQuery        Kind = "query"
	KindMutation     Kind = "mutation"
	KindSubscription Kind = "subscription"
)

var (
	// ErrUnknownProcedure is returned by a transport for a name it does not serve.
	ErrUnknownProcedure = errors.New("rpc: unknown procedure")
	// ErrClosed is returned for calls on a closed transport.
	ErrClosed = errors.New("rpc: transport closed")
)

// Failure is a backend-reported failure of one call. Reason is meant for
// display; Err, when set, is the underlying cause.
type Failure struct {
	Procedure string
	Reason    string
	Err       error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Procedure, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

// Transport carries encoded calls to the backend.
type Transport interface {
	Query(ctx context.Context, procedure string, args json.RawMessage) (json.RawMessage, error)
	Mutation(ctx context.Context, procedure string, args json.RawMessage) (json.RawMessage, error)
	// Subscribe starts a push stream. The stream ends when Unsubscribe is
	// called or ctx is cancelled; the transport then closes Events.
	Subscribe(ctx context.Context, procedure string, args json.RawMessage) (Subscription, error)
}

// Subscription is a live push stream.
type Subscription interface {
	Events() <-chan json.RawMessage
	Unsubscribe()
}

// LibraryArgs is the envelope of every library-scoped call.
type LibraryArgs struct {
	LibraryID string          `json:"library_id"`
	Arg       json.RawMessage `json:"arg"`
}
