package ui

import (
	"image"
	"image/color"
	"strings"

	"gioui.org/font"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/dustin/go-humanize"

	"github.com/justyntemme/orbit/internal/explorer"
)

// ButtonKind selects the fill of a dialog button.
type ButtonKind int

const (
	ButtonPrimary ButtonKind = iota
	ButtonDanger
	ButtonNeutral
)

// renderMenuShell creates a white box with a grey border (used for Popups)
func (r *Renderer) renderMenuShell(gtx layout.Context, content layout.Widget) layout.Dimensions {
	return widget.Border{
		Color:        colLightGray,
		Width:        unit.Dp(1),
		CornerRadius: unit.Dp(4),
	}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Stack{}.Layout(gtx,
			layout.Expanded(func(gtx layout.Context) layout.Dimensions {
				paint.FillShape(gtx.Ops, colWhite, clip.Rect{Max: gtx.Constraints.Min}.Op())
				return layout.Dimensions{Size: gtx.Constraints.Min}
			}),
			layout.Stacked(content),
		)
	})
}

// modalBackdrop dims the window and centers a box of width dp. A click on
// the backdrop presses dismiss, when given.
func (r *Renderer) modalBackdrop(gtx layout.Context, width int, dismiss *widget.Clickable, content layout.Widget) layout.Dimensions {
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			paint.FillShape(gtx.Ops, colBackdrop, clip.Rect{Max: gtx.Constraints.Max}.Op())
			if dismiss != nil {
				return dismiss.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					return layout.Dimensions{Size: gtx.Constraints.Max}
				})
			}
			return layout.Dimensions{Size: gtx.Constraints.Max}
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				w := gtx.Dp(unit.Dp(float32(width)))
				gtx.Constraints.Min.X = w
				gtx.Constraints.Max.X = w
				return layout.Stack{}.Layout(gtx,
					layout.Expanded(func(gtx layout.Context) layout.Dimensions {
						off := gtx.Dp(3)
						rect := image.Rectangle{Min: image.Pt(off, off), Max: gtx.Constraints.Min.Add(image.Pt(off, off))}
						paint.FillShape(gtx.Ops, colShadow, clip.UniformRRect(rect, gtx.Dp(6)).Op(gtx.Ops))
						return layout.Dimensions{}
					}),
					layout.Stacked(func(gtx layout.Context) layout.Dimensions {
						return r.renderMenuShell(gtx, content)
					}),
				)
			})
		}),
	)
}

// modalContent lays out a title, a body and a button row.
func (r *Renderer) modalContent(gtx layout.Context, title string, titleColor color.NRGBA, body, buttons layout.Widget) layout.Dimensions {
	return layout.UniformInset(unit.Dp(20)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				lbl := material.H6(r.Theme, title)
				lbl.Color = titleColor
				return lbl.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
			layout.Rigid(body),
			layout.Rigid(layout.Spacer{Height: unit.Dp(16)}.Layout),
			layout.Rigid(buttons),
		)
	})
}

// dialogButtonRow right-aligns an optional secondary button and a primary one.
func (r *Renderer) dialogButtonRow(gtx layout.Context, secondary, primary *widget.Clickable, secondaryText, primaryText string, kind ButtonKind) layout.Dimensions {
	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.Dimensions{Size: image.Pt(gtx.Constraints.Min.X, 0)}
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if secondary == nil {
				return layout.Dimensions{}
			}
			btn := material.Button(r.Theme, secondary, secondaryText)
			btn.Background = colLightGray
			btn.Color = colBlack
			return layout.Inset{Right: unit.Dp(8)}.Layout(gtx, btn.Layout)
		}),
		layout.Rigid(r.button(primary, primaryText, kind, true)),
	)
}

// button returns a styled button widget; disabled buttons ignore input.
func (r *Renderer) button(clk *widget.Clickable, label string, kind ButtonKind, enabled bool) layout.Widget {
	return func(gtx layout.Context) layout.Dimensions {
		btn := material.Button(r.Theme, clk, label)
		switch kind {
		case ButtonDanger:
			btn.Background = colDanger
		case ButtonNeutral:
			btn.Background = colLightGray
			btn.Color = colBlack
		default:
			btn.Background = colAccent
		}
		if !enabled {
			gtx = gtx.Disabled()
			btn.Background = colLightGray
			btn.Color = colGray
		}
		return btn.Layout(gtx)
	}
}

// iconTile draws a square placeholder for rows without an image thumbnail.
func (r *Renderer) iconTile(gtx layout.Context, thumb explorer.Thumb, size int) layout.Dimensions {
	bg := colIconFile
	switch thumb.Source {
	case explorer.ThumbFolder:
		bg = colIconFolder
	case explorer.ThumbKind:
		bg = colIconKind
	case explorer.ThumbExtension:
		bg = colIconExt
	}
	sz := image.Pt(size, size)
	paint.FillShape(gtx.Ops, bg, clip.UniformRRect(image.Rectangle{Max: sz}, gtx.Dp(3)).Op(gtx.Ops))

	label := strings.ToUpper(thumb.Icon)
	if len(label) > 4 {
		label = label[:4]
	}
	gtx.Constraints = layout.Exact(sz)
	layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		lbl := material.Label(r.Theme, unit.Sp(8), label)
		lbl.Color = colWhite
		lbl.Font.Weight = font.Bold
		lbl.Alignment = text.Middle
		lbl.MaxLines = 1
		return lbl.Layout(gtx)
	})
	return layout.Dimensions{Size: sz}
}

func formatSize(bytes int64) string {
	if bytes < 0 {
		return ""
	}
	return humanize.Bytes(uint64(bytes))
}
