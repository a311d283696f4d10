package explorer

import (
	"sync"

	"github.com/justyntemme/orbit/internal/debug"
)

// Pane names a scrollable region whose offset feeds the top-bar separator.
type Pane string

const (
	PaneMainList  Pane = "mainList"
	PaneInspector Pane = "inspector"
)

// SeparatorThreshold is the scroll offset at which the top bar gets a separator.
const SeparatorThreshold = 5

// DialogKind identifies one of the explorer's modals.
type DialogKind int

const (
	DialogEncrypt DialogKind = iota
	DialogDecrypt
	DialogAlert
)

func (k DialogKind) String() string {
	switch k {
	case DialogEncrypt:
		return "encrypt"
	case DialogDecrypt:
		return "decrypt"
	case DialogAlert:
		return "alert"
	}
	return "unknown"
}

// Alert is the payload of the alert dialog.
type Alert struct {
	Title string
	Text  string
}

// View is the single owner of explorer view state. Every mutation goes
// through its methods; renderers read a Snapshot.
type View struct {
	mu sync.RWMutex

	listing Listing

	scrollSegments map[Pane]float32
	separateTopBar bool

	// Not bounds-checked: it may outlive a listing replacement.
	selectedIndex int

	inspectorVisible bool

	dialogs map[DialogKind]bool
	alert   Alert

	// Target of the encrypt/decrypt dialogs, set from the context menu.
	locationID      int
	contextObjectID int

	invalidate func()
}

// Snapshot is an immutable view of state for the UI to render.
type Snapshot struct {
	Listing          Listing
	ScrollSegments   map[Pane]float32
	SeparateTopBar   bool
	SelectedIndex    int
	InspectorVisible bool
	EncryptOpen      bool
	DecryptOpen      bool
	AlertOpen        bool
	Alert            Alert
	LocationID       int
	ContextObjectID  int
}

// NewView creates a view with nothing selected. invalidate, if set, is
// called after any change that should re-render.
func NewView(showInspector bool, invalidate func()) *View {
	return &View{
		scrollSegments:   make(map[Pane]float32),
		selectedIndex:    -1,
		inspectorVisible: showInspector,
		dialogs:          make(map[DialogKind]bool),
		invalidate:       invalidate,
	}
}

// OnScroll records pane's offset and recomputes the top-bar separator. It
// returns true, and re-renders, only when the separator flips.
func (v *View) OnScroll(pane Pane, offset float32) bool {
	v.mu.Lock()
	v.scrollSegments[pane] = offset

	separate := false
	for _, off := range v.scrollSegments {
		if off >= SeparatorThreshold {
			separate = true
			break
		}
	}
	changed := separate != v.separateTopBar
	v.separateTopBar = separate
	v.mu.Unlock()

	if changed {
		debug.Log(debug.EXPLORER, "separateTopBar=%v (%s=%.1f)", separate, pane, offset)
		v.notify()
	}
	return changed
}

// SeparateTopBar returns the derived separator flag.
func (v *View) SeparateTopBar() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.separateTopBar
}

// OnSelect sets the selected row. Consumers clamp against the live listing.
func (v *View) OnSelect(index int) {
	v.mu.Lock()
	v.selectedIndex = index
	v.mu.Unlock()
	v.notify()
}

// SetListing replaces the snapshot. Selection and thumbnail state are left alone.
func (v *View) SetListing(l Listing) {
	v.mu.Lock()
	v.listing = l
	v.mu.Unlock()
	debug.Log(debug.EXPLORER, "listing replaced (%d items)", l.Len())
	v.notify()
}

// SetInspectorVisible shows or hides the inspector pane.
func (v *View) SetInspectorVisible(show bool) {
	v.mu.Lock()
	v.inspectorVisible = show
	v.mu.Unlock()
	debug.Log(debug.EXPLORER, "inspector visible=%v", show)
	v.notify()
}

// InspectorVisible reports whether the inspector pane is shown.
func (v *View) InspectorVisible() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.inspectorVisible
}

// ToggleInspector flips inspector visibility and returns the new value.
func (v *View) ToggleInspector() bool {
	v.mu.RLock()
	show := !v.inspectorVisible
	v.mu.RUnlock()
	v.SetInspectorVisible(show)
	return show
}

// OpenDialog opens the encrypt, decrypt or alert modal. Opening one never
// touches the others.
func (v *View) OpenDialog(kind DialogKind) {
	v.mu.Lock()
	v.dialogs[kind] = true
	v.mu.Unlock()
	debug.Log(debug.EXPLORER, "open dialog %s", kind)
	v.notify()
}

// OpenAlert sets the alert payload and opens the alert modal atomically.
func (v *View) OpenAlert(title, text string) {
	v.mu.Lock()
	v.alert = Alert{Title: title, Text: text}
	v.dialogs[DialogAlert] = true
	v.mu.Unlock()
	debug.Log(debug.EXPLORER, "open alert %q", title)
	v.notify()
}

// CloseDialog closes one modal.
func (v *View) CloseDialog(kind DialogKind) {
	v.mu.Lock()
	v.dialogs[kind] = false
	v.mu.Unlock()
	v.notify()
}

// DialogOpen reports whether kind is open.
func (v *View) DialogOpen(kind DialogKind) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.dialogs[kind]
}

// SetContextTarget records the location and object a context-menu action
// applies to.
func (v *View) SetContextTarget(locationID, objectID int) {
	v.mu.Lock()
	v.locationID = locationID
	v.contextObjectID = objectID
	v.mu.Unlock()
}

// OpenCryptoDialog opens the encrypt or decrypt dialog when keys are
// available, otherwise an alert explaining why.
func (v *View) OpenCryptoDialog(kind DialogKind, unlocked bool) {
	if kind != DialogEncrypt && kind != DialogDecrypt {
		return
	}
	if !unlocked {
		v.OpenAlert("Key manager locked", "Unlock the key manager before you "+kind.String()+" files.")
		return
	}
	v.OpenDialog(kind)
}

// Snapshot returns a copy for rendering.
func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	segments := make(map[Pane]float32, len(v.scrollSegments))
	for k, off := range v.scrollSegments {
		segments[k] = off
	}
	items := make([]Item, len(v.listing.Items))
	copy(items, v.listing.Items)

	return Snapshot{
		Listing:          Listing{Items: items, Context: v.listing.Context},
		ScrollSegments:   segments,
		SeparateTopBar:   v.separateTopBar,
		SelectedIndex:    v.selectedIndex,
		InspectorVisible: v.inspectorVisible,
		EncryptOpen:      v.dialogs[DialogEncrypt],
		DecryptOpen:      v.dialogs[DialogDecrypt],
		AlertOpen:        v.dialogs[DialogAlert],
		Alert:            v.alert,
		LocationID:       v.locationID,
		ContextObjectID:  v.contextObjectID,
	}
}

func (v *View) notify() {
	if v.invalidate != nil {
		v.invalidate()
	}
}

// SelectedItem dereferences the selection against this snapshot's listing.
// An index that no longer fits means nothing is selected.
func (s Snapshot) SelectedItem() (Item, bool) {
	return s.Listing.At(s.SelectedIndex)
}

// ContextItem finds the item recorded by SetContextTarget in this
// snapshot's listing. Zero is no target.
func (s Snapshot) ContextItem() (Item, bool) {
	if s.ContextObjectID == 0 {
		return nil, false
	}
	for _, it := range s.Listing.Items {
		if it.ItemID() == s.ContextObjectID {
			return it, true
		}
	}
	return nil, false
}

// Row is one composed row for the virtualized list.
type Row struct {
	Index    int
	Item     Item
	Name     string
	Kind     ObjectKind
	Thumb    Thumb
	Selected bool
}

// Rows composes the snapshot with thumbnail availability and URL resolution.
func (s Snapshot) Rows(cache Availability, urls URLResolver) []Row {
	rows := make([]Row, len(s.Listing.Items))
	for i, it := range s.Listing.Items {
		rows[i] = Row{
			Index:    i,
			Item:     it,
			Name:     Name(it),
			Kind:     ItemKind(it),
			Thumb:    ResolveThumb(it, cache, urls),
			Selected: i == s.SelectedIndex,
		}
	}
	return rows
}
