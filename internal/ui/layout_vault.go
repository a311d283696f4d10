package ui

import (
	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/justyntemme/orbit/internal/vault"
)

// Key manager panel at the bottom of the sidebar

const maskRune = '•'

func (r *Renderer) layoutKeyManager(gtx layout.Context, state *State, eventOut *UIEvent) layout.Dimensions {
	vs := state.Vault
	locked := vs.State == vault.Locked

	if r.revealPassword.Update(gtx) {
		*eventOut = UIEvent{Action: ActionRevealPassword}
	}
	if r.revealSecretKey.Update(gtx) {
		*eventOut = UIEvent{Action: ActionRevealSecretKey}
	}
	r.revealPassword.Value = vs.RevealPass
	r.revealSecretKey.Value = vs.RevealSecret
	r.passwordEditor.Mask = maskFor(vs.RevealPass)
	r.secretKeyEditor.Mask = maskFor(vs.RevealSecret)

	r.syncForm(vs.FormGen)
	r.passwordEditor.ReadOnly = !locked
	r.secretKeyEditor.ReadOnly = !locked

	submitted, changed := false, false
	for _, ed := range []*widget.Editor{&r.passwordEditor, &r.secretKeyEditor} {
		for {
			ev, ok := ed.Update(gtx)
			if !ok {
				break
			}
			switch ev.(type) {
			case widget.ChangeEvent:
				changed = true
			case widget.SubmitEvent:
				submitted = true
			}
		}
	}
	if changed && locked && r.OnCredentials != nil {
		r.OnCredentials(r.passwordEditor.Text(), r.secretKeyEditor.Text())
	}
	// The session owns the form; it refuses incomplete submissions itself
	if r.unlockBtn.Clicked(gtx) && vs.CanSubmit {
		submitted = true
	}
	if submitted && locked {
		*eventOut = UIEvent{Action: ActionUnlock}
	}
	if r.lockBtn.Clicked(gtx) && vs.State == vault.Unlocked {
		*eventOut = UIEvent{Action: ActionLock}
	}

	return layout.UniformInset(unit.Dp(12)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		children := []layout.FlexChild{
			layout.Rigid(material.Caption(r.Theme, "KEY MANAGER").Layout),
			layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
		}

		switch {
		case !vs.Known:
			children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				lbl := material.Body2(r.Theme, "Checking…")
				lbl.Color = colGray
				return lbl.Layout(gtx)
			}))
		case vs.State == vault.Unlocked:
			children = append(children,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					lbl := material.Body2(r.Theme, "Unlocked")
					lbl.Color = colSuccess
					return lbl.Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
				layout.Rigid(r.button(&r.lockBtn, "Unmount & lock", ButtonDanger, true)),
			)
		default:
			children = append(children,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return r.credentialField(gtx, &r.passwordEditor, "Master password", &r.revealPassword)
				}),
				layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return r.credentialField(gtx, &r.secretKeyEditor, "Secret key", &r.revealSecretKey)
				}),
				layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					label := "Unlock"
					if vs.State == vault.Unlocking {
						label = "Unlocking…"
					}
					return r.button(&r.unlockBtn, label, ButtonPrimary, vs.CanSubmit)(gtx)
				}),
			)
		}
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
	})
}

func (r *Renderer) credentialField(gtx layout.Context, ed *widget.Editor, hint string, reveal *widget.Bool) layout.Dimensions {
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return widget.Border{Color: colLightGray, Width: unit.Dp(1), CornerRadius: unit.Dp(4)}.Layout(gtx,
				func(gtx layout.Context) layout.Dimensions {
					gtx.Constraints.Min.X = gtx.Constraints.Max.X
					return layout.UniformInset(unit.Dp(6)).Layout(gtx, material.Editor(r.Theme, ed, hint).Layout)
				})
		}),
		layout.Rigid(material.CheckBox(r.Theme, reveal, "Show").Layout),
	)
}

// syncForm empties the editors when the session cleared its form since the
// last frame.
func (r *Renderer) syncForm(gen uint64) {
	if gen == r.formGen {
		return
	}
	r.formGen = gen
	r.passwordEditor.SetText("")
	r.secretKeyEditor.SetText("")
}

func maskFor(reveal bool) rune {
	if reveal {
		return 0
	}
	return maskRune
}
