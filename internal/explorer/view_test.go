package explorer

import (
	"encoding/json"
	"testing"

	"github.com/justyntemme/orbit/internal/rpc"
)

func TestSeparateTopBarFollowsScrollSegments(t *testing.T) {
	v := NewView(true, nil)

	steps := []struct {
		pane     Pane
		offset   float32
		expected bool
		flipped  bool
	}{
		{PaneMainList, 3, false, false},
		{PaneInspector, 6, true, true},
		{PaneMainList, 10, true, false},
		{PaneMainList, 0, true, false},
		{PaneInspector, 2, false, true},
		{PaneInspector, 5, true, true},
	}

	for i, s := range steps {
		flipped := v.OnScroll(s.pane, s.offset)
		if got := v.SeparateTopBar(); got != s.expected {
			t.Errorf("step %d OnScroll(%s, %v): expected separateTopBar=%v, got %v", i, s.pane, s.offset, s.expected, got)
		}
		if flipped != s.flipped {
			t.Errorf("step %d: expected flipped=%v, got %v", i, s.flipped, flipped)
		}
	}
}

func TestOnScrollOnlyNotifiesOnFlip(t *testing.T) {
	renders := 0
	v := NewView(true, func() { renders++ })

	v.OnScroll(PaneMainList, 1)
	v.OnScroll(PaneMainList, 2)
	if renders != 0 {
		t.Fatalf("expected no re-render below threshold, got %d", renders)
	}
	v.OnScroll(PaneMainList, 8)
	v.OnScroll(PaneMainList, 20)
	if renders != 1 {
		t.Errorf("expected exactly 1 re-render, got %d", renders)
	}
}

func TestSelectionIsNotBoundsChecked(t *testing.T) {
	v := NewView(true, nil)
	v.SetListing(Listing{Items: []Item{&Path{ID: 1}, &Path{ID: 2}, &Path{ID: 3}}})
	v.OnSelect(2)

	snap := v.Snapshot()
	if it, ok := snap.SelectedItem(); !ok || it.ItemID() != 3 {
		t.Fatalf("expected item 3 selected, got %v, %v", it, ok)
	}

	// Replacing the snapshot leaves a stale index behind
	v.SetListing(Listing{Items: []Item{&Path{ID: 9}}})
	snap = v.Snapshot()
	if snap.SelectedIndex != 2 {
		t.Errorf("expected selection index to be kept, got %d", snap.SelectedIndex)
	}
	if _, ok := snap.SelectedItem(); ok {
		t.Error("stale selection must dereference as nothing selected")
	}

	v.OnSelect(-1)
	if _, ok := v.Snapshot().SelectedItem(); ok {
		t.Error("index -1 must mean nothing selected")
	}
}

func TestDialogsAreIndependent(t *testing.T) {
	v := NewView(true, nil)

	v.OpenDialog(DialogEncrypt)
	v.OpenAlert("Failed", "could not encrypt")
	v.OpenDialog(DialogDecrypt)

	snap := v.Snapshot()
	if !snap.EncryptOpen || !snap.DecryptOpen || !snap.AlertOpen {
		t.Fatalf("expected all three dialogs open, got %+v", snap)
	}
	if snap.Alert != (Alert{Title: "Failed", Text: "could not encrypt"}) {
		t.Errorf("unexpected alert payload %+v", snap.Alert)
	}

	v.CloseDialog(DialogEncrypt)
	snap = v.Snapshot()
	if snap.EncryptOpen || !snap.DecryptOpen || !snap.AlertOpen {
		t.Errorf("closing encrypt affected other dialogs: %+v", snap)
	}

	v.CloseDialog(DialogAlert)
	if v.DialogOpen(DialogAlert) || !v.DialogOpen(DialogDecrypt) {
		t.Error("closing alert affected decrypt")
	}
}

func TestOpenCryptoDialogWhileLocked(t *testing.T) {
	v := NewView(true, nil)

	v.OpenCryptoDialog(DialogEncrypt, false)
	if v.DialogOpen(DialogEncrypt) {
		t.Error("encrypt dialog must not open while locked")
	}
	if !v.DialogOpen(DialogAlert) {
		t.Error("expected an alert while locked")
	}

	v.OpenCryptoDialog(DialogDecrypt, true)
	if !v.DialogOpen(DialogDecrypt) {
		t.Error("expected decrypt dialog when unlocked")
	}
}

func TestToggleInspector(t *testing.T) {
	v := NewView(false, nil)
	if !v.ToggleInspector() || !v.InspectorVisible() {
		t.Error("expected inspector visible after toggle")
	}
	if v.ToggleInspector() || v.Snapshot().InspectorVisible {
		t.Error("expected inspector hidden after second toggle")
	}
}

func TestContextItemFollowsRecordedTarget(t *testing.T) {
	v := NewView(true, nil)
	v.SetListing(Listing{Items: []Item{&Path{ID: 1, Name: "a.txt"}, &Path{ID: 2, Name: "b.txt"}}})

	if _, ok := v.Snapshot().ContextItem(); ok {
		t.Error("expected no context item before a target is recorded")
	}

	v.OnSelect(0)
	v.SetContextTarget(4, 2)
	snap := v.Snapshot()
	it, ok := snap.ContextItem()
	if !ok || it.ItemID() != 2 || snap.LocationID != 4 {
		t.Fatalf("expected item 2 in location 4, got %v %v (location %d)", it, ok, snap.LocationID)
	}

	// The target outlives selection changes but not the listing it names
	v.OnSelect(1)
	if it, _ := v.Snapshot().ContextItem(); it == nil || it.ItemID() != 2 {
		t.Errorf("selection change must not move the context target, got %v", it)
	}
	v.SetListing(Listing{Items: []Item{&Path{ID: 7}}})
	if _, ok := v.Snapshot().ContextItem(); ok {
		t.Error("expected no context item once the listing no longer holds it")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	v := NewView(true, nil)
	v.SetListing(Listing{Items: []Item{&Path{ID: 1}}})
	v.OnScroll(PaneMainList, 7)

	snap := v.Snapshot()
	snap.ScrollSegments[PaneMainList] = 0
	snap.Listing.Items[0] = &Path{ID: 99}

	again := v.Snapshot()
	if again.ScrollSegments[PaneMainList] != 7 {
		t.Error("snapshot scroll segments alias view state")
	}
	if again.Listing.Items[0].ItemID() != 1 {
		t.Error("snapshot items alias view state")
	}
}

func TestRowsComposeThumbnails(t *testing.T) {
	v := NewView(true, nil)
	v.SetListing(Listing{Items: []Item{
		&Path{ID: 1, Name: "photos", IsDir: true},
		&Object{ID: 2, Cas: "abc", Ext: "jpg"},
	}})
	v.OnSelect(1)
	cache := setCache{}

	rows := v.Snapshot().Rows(cache, allURLs)
	if rows[0].Thumb.Source != ThumbFolder || rows[1].Thumb.Source != ThumbGeneric {
		t.Fatalf("unexpected sources before push: %s, %s", rows[0].Thumb.Source, rows[1].Thumb.Source)
	}
	if !rows[1].Selected || rows[0].Selected {
		t.Error("expected row 1 selected")
	}

	cache["abc"] = true
	rows = v.Snapshot().Rows(cache, allURLs)
	if rows[1].Thumb.Source != ThumbImage {
		t.Errorf("expected image after push, got %s", rows[1].Thumb.Source)
	}
}

func TestListingFromWire(t *testing.T) {
	data := rpc.ExplorerData{
		Context: json.RawMessage(`{"location_id":1}`),
		Items: []rpc.ItemWire{
			{Type: "Path", Path: &rpc.PathWire{ID: 1, Name: "docs", IsDir: true}},
			{Type: "Path", Path: &rpc.PathWire{ID: 2, Name: "a.PNG", Extension: ".PNG",
				Object: &rpc.ObjectWire{ID: 7, CasID: "abc", Kind: int(KindImage)}}},
			{Type: "Object", Object: &rpc.ObjectWire{ID: 8, CasID: "def", HasThumbnail: true}},
			{Type: "Tag"},
		},
	}

	l := ListingFromWire(data)
	if l.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", l.Len())
	}
	if !IsDir(l.Items[0]) {
		t.Error("expected first item to be a directory")
	}
	p, ok := l.Items[1].(*Path)
	if !ok || p.CasID() != "abc" || p.Extension() != "png" {
		t.Errorf("unexpected path conversion: %+v", l.Items[1])
	}
	if ItemKind(l.Items[1]) != KindImage {
		t.Errorf("expected image kind, got %s", ItemKind(l.Items[1]))
	}
	o, ok := l.Items[2].(*Object)
	if !ok || !o.HasThumbnail || o.CasID() != "def" {
		t.Errorf("unexpected object conversion: %+v", l.Items[2])
	}
	if string(l.Context) != `{"location_id":1}` {
		t.Errorf("context not carried: %s", l.Context)
	}
}
