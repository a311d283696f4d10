package rpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/justyntemme/orbit/internal/rpc"
	"github.com/justyntemme/orbit/internal/rpc/rpctest"
)

func TestClientScopesCallsToLibrary(t *testing.T) {
	fake := rpctest.New()
	fake.Return(rpc.KeysHasMasterPass, true, nil)
	lib := uuid.New()
	c := rpc.NewClient(fake, lib)

	has, err := c.HasMasterPassword(context.Background())
	if err != nil || !has {
		t.Fatalf("HasMasterPassword: expected (true, nil), got (%v, %v)", has, err)
	}

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Kind != rpc.KindQuery {
		t.Errorf("expected query, got %s", calls[0].Kind)
	}
	if calls[0].Args.LibraryID != lib.String() {
		t.Errorf("expected library %s, got %s", lib, calls[0].Args.LibraryID)
	}
	if string(calls[0].Args.Arg) != "null" {
		t.Errorf("expected null arg, got %s", calls[0].Args.Arg)
	}
}

func TestSetMasterPasswordSendsCredentials(t *testing.T) {
	fake := rpctest.New()
	var got rpc.Credentials
	fake.Handle(rpc.KeysSetMasterPass, func(_ context.Context, arg json.RawMessage) (any, error) {
		return nil, json.Unmarshal(arg, &got)
	})
	c := rpc.NewClient(fake, uuid.New())

	if err := c.SetMasterPassword(context.Background(), "pw", "sk"); err != nil {
		t.Fatalf("SetMasterPassword failed: %v", err)
	}
	if got.Password != "pw" || got.SecretKey != "sk" {
		t.Errorf("expected credentials pw/sk, got %+v", got)
	}
	if fake.Calls()[0].Kind != rpc.KindMutation {
		t.Error("setMasterPassword must be a mutation")
	}
}

func TestFailuresAreWrapped(t *testing.T) {
	testCases := []struct {
		name      string
		err       error
		wantFail  bool
		wantCause error
	}{
		{"plain error", errors.New("boom"), true, nil},
		{"unknown procedure", rpc.ErrUnknownProcedure, true, rpc.ErrUnknownProcedure},
		{"backend failure", &rpc.Failure{Procedure: rpc.KeysUnmountAll, Reason: "busy"}, true, nil},
		{"cancelled", context.Canceled, false, context.Canceled},
	}

	for _, tc := range testCases {
		fake := rpctest.New()
		fake.Return(rpc.KeysUnmountAll, nil, tc.err)
		c := rpc.NewClient(fake, uuid.New())

		err := c.UnmountAll(context.Background())
		var f *rpc.Failure
		if got := errors.As(err, &f); got != tc.wantFail {
			t.Errorf("%s: expected Failure=%v, got %v (%v)", tc.name, tc.wantFail, got, err)
		}
		if tc.wantCause != nil && !errors.Is(err, tc.wantCause) {
			t.Errorf("%s: expected errors.Is(%v), got %v", tc.name, tc.wantCause, err)
		}
	}
}

func TestThumbnailStream(t *testing.T) {
	fake := rpctest.New()
	c := rpc.NewClient(fake, uuid.New())
	ctx := context.Background()

	stream, err := c.SubscribeNewThumbnail(ctx)
	if err != nil {
		t.Fatalf("SubscribeNewThumbnail failed: %v", err)
	}
	subs := fake.Subs(rpc.JobsNewThumbnail)
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscription, got %d", len(subs))
	}
	if string(subs[0].Args.Arg) != "null" {
		t.Errorf("expected null arg, got %s", subs[0].Args.Arg)
	}

	subs[0].Push(42) // not a string, skipped
	subs[0].Push("abc")

	recvCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	cas, ok := stream.Recv(recvCtx)
	if !ok || cas != "abc" {
		t.Fatalf("Recv: expected (abc, true), got (%q, %v)", cas, ok)
	}

	stream.Close()
	stream.Close()
	if !subs[0].Closed() {
		t.Error("expected subscription closed")
	}
	if _, ok := stream.Recv(recvCtx); ok {
		t.Error("expected Recv to report closed stream")
	}
}
