package ui

import (
	"gioui.org/widget"

	"github.com/justyntemme/orbit/internal/explorer"
	"github.com/justyntemme/orbit/internal/rpc"
	"github.com/justyntemme/orbit/internal/vault"
)

type UIAction int

const (
	ActionNone UIAction = iota
	ActionSelect
	ActionOpen // Double click: navigate into a directory or open a file
	ActionBack
	ActionForward
	ActionRefresh
	ActionSelectLocation
	ActionAddLocation
	ActionToggleInspector
	ActionRevealPassword
	ActionRevealSecretKey
	ActionUnlock
	ActionLock
	ActionOpenEncrypt
	ActionOpenDecrypt
	ActionCloseDialog
	ActionAcknowledgeNotice
	ActionShowDevtools
	ActionOpenConfig
)

type UIEvent struct {
	Action   UIAction
	NewIndex int
	Location int
	Dialog   explorer.DialogKind
}

// VaultState is what the key manager panel renders.
type VaultState struct {
	State     vault.State
	Known     bool
	CanSubmit bool
	// FormGen changes whenever the session clears its form; the editors
	// follow.
	FormGen       uint64
	RevealPass    bool
	RevealSecret  bool
	Notice        vault.Notice
	NoticePending bool
}

// State is everything one frame renders. The orchestrator rebuilds it from
// the view, the thumbnail cache and the vault session before each frame.
type State struct {
	View        explorer.Snapshot
	Rows        []explorer.Row
	Locations   []rpc.Location
	LocationID  int
	CurrentPath string
	CanBack     bool
	CanForward  bool
	Vault       VaultState
	OS          string
	ConfigError string
}

// rowWidgets are the per-row widgets; they outlive listings so clicks in
// flight are not lost on refresh.
type rowWidgets struct {
	click widget.Clickable
}

type locationWidgets struct {
	click widget.Clickable
}
