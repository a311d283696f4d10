package ui

import (
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/layout"

	"github.com/justyntemme/orbit/internal/config"
	"github.com/justyntemme/orbit/internal/debug"
	"github.com/justyntemme/orbit/internal/vault"
)

// SetHotkeys configures the keyboard shortcuts from config
func (r *Renderer) SetHotkeys(cfg config.HotkeysConfig) {
	r.hotkeys = config.NewHotkeyMatcher(cfg)
	debug.Log(debug.UI, "hotkeys configured: back=%s inspector=%s lock=%s",
		r.hotkeys.Back, r.hotkeys.ToggleInspector, r.hotkeys.Lock)
}

// buildHotkeyFilters creates a key.Filter for each configured hotkey,
// deduplicated by key and modifiers.
func (r *Renderer) buildHotkeyFilters(keyTag event.Tag) []event.Filter {
	type filterKey struct {
		name key.Name
		mods key.Modifiers
	}
	seen := make(map[filterKey]bool)

	all := r.hotkeys.All()
	filters := make([]event.Filter, 0, len(all))
	for _, hk := range all {
		if hk.IsEmpty() {
			continue
		}
		fk := filterKey{hk.Key, hk.Modifiers}
		if !seen[fk] {
			seen[fk] = true
			filters = append(filters, hk.Filter(keyTag))
		}
	}
	return filters
}

// processHotkeys turns key presses on the explorer into actions. While a
// dialog is up only Escape is honoured, and it dismisses the dialog.
func (r *Renderer) processHotkeys(gtx layout.Context, state *State, keyTag event.Tag) UIEvent {
	if r.hotkeys == nil {
		return UIEvent{}
	}

	filters := r.buildHotkeyFilters(keyTag)
	for {
		e, ok := gtx.Event(filters...)
		if !ok {
			break
		}
		k, ok := e.(key.Event)
		if !ok || k.State != key.Press {
			continue
		}
		debug.Log(debug.UI, "key pressed: name=%q mods=0x%x", k.Name, k.Modifiers)

		if evt, ok := r.hotkeyAction(k, state); ok {
			return evt
		}
	}
	return UIEvent{}
}

func (r *Renderer) hotkeyAction(k key.Event, state *State) (UIEvent, bool) {
	h := r.hotkeys
	v := state.View

	if dialog, open := openDialog(state); open {
		if !h.Escape.Matches(k) {
			return UIEvent{}, false
		}
		if state.Vault.NoticePending {
			return UIEvent{Action: ActionAcknowledgeNotice}, true
		}
		return UIEvent{Action: ActionCloseDialog, Dialog: dialog}, true
	}

	switch {
	case h.Back.Matches(k) && state.CanBack:
		return UIEvent{Action: ActionBack}, true
	case h.Forward.Matches(k) && state.CanForward:
		return UIEvent{Action: ActionForward}, true
	case h.Refresh.Matches(k):
		return UIEvent{Action: ActionRefresh}, true
	case h.ToggleInspector.Matches(k):
		return UIEvent{Action: ActionToggleInspector}, true
	case h.Lock.Matches(k) && state.Vault.State == vault.Unlocked:
		return UIEvent{Action: ActionLock}, true
	case h.Open.Matches(k) && v.SelectedIndex >= 0 && v.SelectedIndex < len(state.Rows):
		return UIEvent{Action: ActionOpen, NewIndex: v.SelectedIndex}, true
	case h.SelectPrev.Matches(k) && len(state.Rows) > 0:
		return UIEvent{Action: ActionSelect, NewIndex: stepSelection(v.SelectedIndex, -1, len(state.Rows))}, true
	case h.SelectNext.Matches(k) && len(state.Rows) > 0:
		return UIEvent{Action: ActionSelect, NewIndex: stepSelection(v.SelectedIndex, 1, len(state.Rows))}, true
	case h.Escape.Matches(k) && v.SelectedIndex >= 0:
		return UIEvent{Action: ActionSelect, NewIndex: -1}, true
	}
	return UIEvent{}, false
}

// stepSelection moves the selection by delta within [0, n). An index outside
// the listing starts from the nearest end.
func stepSelection(current, delta, n int) int {
	if current < 0 || current >= n {
		if delta < 0 {
			return n - 1
		}
		return 0
	}
	next := current + delta
	if next < 0 {
		return 0
	}
	if next >= n {
		return n - 1
	}
	return next
}
