package store

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "orbit.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, ok, err := db.Setting(ctx, KeyLastLocation); err != nil || ok {
		t.Fatalf("expected missing setting, got ok=%v err=%v", ok, err)
	}

	if err := db.SaveSetting(ctx, KeyLastLocation, "3"); err != nil {
		t.Fatalf("SaveSetting failed: %v", err)
	}
	if err := db.SaveSetting(ctx, KeyLastLocation, "4"); err != nil {
		t.Fatalf("SaveSetting overwrite failed: %v", err)
	}

	v, ok, err := db.Setting(ctx, KeyLastLocation)
	if err != nil || !ok || v != "4" {
		t.Errorf("Setting: expected (4, true, nil), got (%q, %v, %v)", v, ok, err)
	}

	all, err := db.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 setting, got %d", len(all))
	}
}

func TestBoolSetting(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if got := db.BoolSetting(ctx, KeyShowInspector, true); !got {
		t.Error("expected default true for unset key")
	}
	if err := db.SaveBoolSetting(ctx, KeyShowInspector, false); err != nil {
		t.Fatalf("SaveBoolSetting failed: %v", err)
	}
	if got := db.BoolSetting(ctx, KeyShowInspector, true); got {
		t.Error("expected stored false to win over default")
	}

	if err := db.SaveSetting(ctx, KeyShowInspector, "not-a-bool"); err != nil {
		t.Fatalf("SaveSetting failed: %v", err)
	}
	if got := db.BoolSetting(ctx, KeyShowInspector, true); !got {
		t.Error("expected default for unparsable value")
	}
}

func TestVerifier(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.Verifier(ctx); !errors.Is(err, ErrNoVerifier) {
		t.Fatalf("expected ErrNoVerifier, got %v", err)
	}

	want := Verifier{Salt: []byte("salt"), Hash: []byte("hash")}
	if err := db.SaveVerifier(ctx, want); err != nil {
		t.Fatalf("SaveVerifier failed: %v", err)
	}
	got, err := db.Verifier(ctx)
	if err != nil {
		t.Fatalf("Verifier failed: %v", err)
	}
	if !bytes.Equal(got.Salt, want.Salt) || !bytes.Equal(got.Hash, want.Hash) {
		t.Errorf("Verifier: expected %v, got %v", want, got)
	}

	if err := db.ClearVerifier(ctx); err != nil {
		t.Fatalf("ClearVerifier failed: %v", err)
	}
	if _, err := db.Verifier(ctx); !errors.Is(err, ErrNoVerifier) {
		t.Errorf("expected ErrNoVerifier after clear, got %v", err)
	}
}

func TestAutomountKeys(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	db.AddKey(ctx, "b", true)
	db.AddKey(ctx, "a", true)
	db.AddKey(ctx, "c", false)

	ids, err := db.AutomountKeys(ctx)
	if err != nil {
		t.Fatalf("AutomountKeys failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("AutomountKeys: expected [a b], got %v", ids)
	}
}
