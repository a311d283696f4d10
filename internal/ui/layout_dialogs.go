package ui

import (
	"fmt"

	"gioui.org/layout"
	"gioui.org/widget/material"

	"github.com/justyntemme/orbit/internal/explorer"
)

// Modal dialogs. A pending vault notice is drawn above the view's dialogs.

func (r *Renderer) layoutDialogs(gtx layout.Context, state *State, eventOut *UIEvent) layout.Dimensions {
	v := state.View
	switch {
	case state.Vault.NoticePending:
		return r.layoutNotice(gtx, state, eventOut)
	case v.AlertOpen:
		return r.layoutAlert(gtx, state, eventOut)
	case v.EncryptOpen:
		return r.layoutCryptoDialog(gtx, state, explorer.DialogEncrypt, eventOut)
	case v.DecryptOpen:
		return r.layoutCryptoDialog(gtx, state, explorer.DialogDecrypt, eventOut)
	}
	return layout.Dimensions{}
}

// openDialog reports the dialog Escape would dismiss.
func openDialog(state *State) (explorer.DialogKind, bool) {
	v := state.View
	switch {
	case state.Vault.NoticePending, v.AlertOpen:
		return explorer.DialogAlert, true
	case v.EncryptOpen:
		return explorer.DialogEncrypt, true
	case v.DecryptOpen:
		return explorer.DialogDecrypt, true
	}
	return 0, false
}

func (r *Renderer) layoutNotice(gtx layout.Context, state *State, eventOut *UIEvent) layout.Dimensions {
	if r.noticeOKBtn.Clicked(gtx) {
		*eventOut = UIEvent{Action: ActionAcknowledgeNotice}
	}
	n := state.Vault.Notice
	return r.modalBackdrop(gtx, 350, nil, func(gtx layout.Context) layout.Dimensions {
		return r.modalContent(gtx, n.Title, colDanger,
			material.Body1(r.Theme, n.Text).Layout,
			func(gtx layout.Context) layout.Dimensions {
				return r.dialogButtonRow(gtx, nil, &r.noticeOKBtn, "", "OK", ButtonPrimary)
			},
		)
	})
}

func (r *Renderer) layoutAlert(gtx layout.Context, state *State, eventOut *UIEvent) layout.Dimensions {
	if r.alertOKBtn.Clicked(gtx) {
		*eventOut = UIEvent{Action: ActionCloseDialog, Dialog: explorer.DialogAlert}
	}
	a := state.View.Alert
	return r.modalBackdrop(gtx, 350, nil, func(gtx layout.Context) layout.Dimensions {
		return r.modalContent(gtx, a.Title, colBlack,
			material.Body1(r.Theme, a.Text).Layout,
			func(gtx layout.Context) layout.Dimensions {
				return r.dialogButtonRow(gtx, nil, &r.alertOKBtn, "", "OK", ButtonPrimary)
			},
		)
	})
}

func (r *Renderer) layoutCryptoDialog(gtx layout.Context, state *State, kind explorer.DialogKind, eventOut *UIEvent) layout.Dimensions {
	if r.cryptoCloseBtn.Clicked(gtx) {
		*eventOut = UIEvent{Action: ActionCloseDialog, Dialog: kind}
	}

	title := "Encrypt file"
	if kind == explorer.DialogDecrypt {
		title = "Decrypt file"
	}
	body := fmt.Sprintf("%s %s with a mounted key. Key selection is handled by the library backend.", title, cryptoTarget(state))

	return r.modalBackdrop(gtx, 400, nil, func(gtx layout.Context) layout.Dimensions {
		return r.modalContent(gtx, title, colBlack,
			material.Body1(r.Theme, body).Layout,
			func(gtx layout.Context) layout.Dimensions {
				return r.dialogButtonRow(gtx, nil, &r.cryptoCloseBtn, "", "Close", ButtonNeutral)
			},
		)
	})
}

// cryptoTarget describes the location and item recorded when the encrypt or
// decrypt dialog was opened.
func cryptoTarget(state *State) string {
	v := state.View
	target := "the selected item"
	if it, ok := v.ContextItem(); ok {
		target = fmt.Sprintf("%q", explorer.Name(it))
	}
	for _, loc := range state.Locations {
		if loc.ID == v.LocationID {
			return target + " in " + loc.Name
		}
	}
	return target
}
