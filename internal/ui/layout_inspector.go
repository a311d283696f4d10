package ui

import (
	"fmt"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"github.com/justyntemme/orbit/internal/explorer"
	"github.com/justyntemme/orbit/internal/vault"
)

// Inspector pane - details of the selected item

type inspectorField struct {
	label string
	value string
}

func inspectorFields(it explorer.Item, hasThumb bool) []inspectorField {
	fields := []inspectorField{
		{"Kind", explorer.ItemKind(it).String()},
	}
	if !explorer.IsDir(it) {
		fields = append(fields, inspectorField{"Size", formatSize(itemSize(it))})
	}
	if ext := it.Extension(); ext != "" {
		fields = append(fields, inspectorField{"Extension", ext})
	}
	if p, ok := it.(*explorer.Path); ok && p.MaterializedPath != "" {
		fields = append(fields, inspectorField{"Path", p.MaterializedPath})
	}
	if cas := it.CasID(); cas != "" {
		fields = append(fields, inspectorField{"Content ID", cas})
	}
	fields = append(fields, inspectorField{"Thumbnail", fmt.Sprintf("%v", hasThumb)})
	return fields
}

func (r *Renderer) layoutInspector(gtx layout.Context, state *State, eventOut *UIEvent) layout.Dimensions {
	if r.encryptBtn.Clicked(gtx) {
		*eventOut = UIEvent{Action: ActionOpenEncrypt}
	}
	if r.decryptBtn.Clicked(gtx) {
		*eventOut = UIEvent{Action: ActionOpenDecrypt}
	}

	width := gtx.Dp(260)
	gtx.Constraints.Min.X, gtx.Constraints.Max.X = width, width
	paint.FillShape(gtx.Ops, colSidebar, clip.Rect{Max: gtx.Constraints.Max}.Op())

	var children []layout.Widget
	row, selected := selectedRow(state)
	if !selected {
		children = append(children, func(gtx layout.Context) layout.Dimensions {
			lbl := material.Body2(r.Theme, "Nothing selected")
			lbl.Color = colGray
			return lbl.Layout(gtx)
		})
	} else {
		children = append(children,
			func(gtx layout.Context) layout.Dimensions {
				return r.renderThumb(gtx, row.Thumb, gtx.Dp(200))
			},
			func(gtx layout.Context) layout.Dimensions {
				lbl := material.H6(r.Theme, row.Name)
				lbl.MaxLines = 2
				return layout.Inset{Top: unit.Dp(8), Bottom: unit.Dp(8)}.Layout(gtx, lbl.Layout)
			},
		)
		for _, f := range inspectorFields(row.Item, row.Thumb.Source == explorer.ThumbImage) {
			children = append(children, func(gtx layout.Context) layout.Dimensions {
				return layout.Inset{Bottom: unit.Dp(6)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							lbl := material.Caption(r.Theme, f.label)
							lbl.Color = colGray
							return lbl.Layout(gtx)
						}),
						layout.Rigid(material.Body2(r.Theme, f.value).Layout),
					)
				})
			})
		}
		if !explorer.IsDir(row.Item) {
			unlocked := state.Vault.State == vault.Unlocked
			children = append(children, func(gtx layout.Context) layout.Dimensions {
				return layout.Inset{Top: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
						layout.Rigid(r.button(&r.encryptBtn, "Encrypt", ButtonPrimary, true)),
						layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
						layout.Rigid(r.button(&r.decryptBtn, "Decrypt", ButtonNeutral, true)),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							if unlocked {
								return layout.Dimensions{}
							}
							return layout.Inset{Left: unit.Dp(8)}.Layout(gtx, material.Caption(r.Theme, "locked").Layout)
						}),
					)
				})
			})
		}
	}

	dims := layout.UniformInset(unit.Dp(12)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return r.inspectorState.Layout(gtx, len(children), func(gtx layout.Context, i int) layout.Dimensions {
			return children[i](gtx)
		})
	})

	// Inspector rows are not uniform; only the in-row offset past the first
	// child is reported, plus a row's worth per child scrolled off.
	r.reportScroll(explorer.PaneInspector, listOffset(&r.inspectorState, gtx.Dp(unit.Dp(float32(r.RowHeight)))))
	return dims
}

// selectedRow returns the row of the selected item, if it is in the listing.
func selectedRow(state *State) (explorer.Row, bool) {
	for _, row := range state.Rows {
		if row.Selected {
			return row, true
		}
	}
	return explorer.Row{}, false
}
