package ui

import (
	"image"

	"gioui.org/font"
	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/justyntemme/orbit/internal/explorer"
)

// File list layout - the virtualized main list of the explorer

func (r *Renderer) layoutFileList(gtx layout.Context, state *State, eventOut *UIEvent) layout.Dimensions {
	for len(r.rows) < len(state.Rows) {
		r.rows = append(r.rows, rowWidgets{})
	}

	rowPx := gtx.Dp(unit.Dp(float32(r.RowHeight)))

	if len(state.Rows) == 0 {
		return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			lbl := material.Body2(r.Theme, "This folder is empty")
			lbl.Color = colGray
			return lbl.Layout(gtx)
		})
	}

	dims := r.listState.Layout(gtx, len(state.Rows), func(gtx layout.Context, i int) layout.Dimensions {
		row := state.Rows[i]
		w := &r.rows[i]

		for {
			click, ok := w.click.Update(gtx)
			if !ok {
				break
			}
			// Clicking a row hands keyboard focus back to the explorer
			gtx.Execute(key.FocusCmd{Tag: r.keyTag()})
			if click.NumClicks >= 2 {
				*eventOut = UIEvent{Action: ActionOpen, NewIndex: row.Index}
			} else {
				*eventOut = UIEvent{Action: ActionSelect, NewIndex: row.Index}
			}
		}

		gtx.Constraints.Min.Y, gtx.Constraints.Max.Y = rowPx, rowPx
		gtx.Constraints.Min.X = gtx.Constraints.Max.X
		return r.renderRow(gtx, row, w)
	})

	r.reportScroll(explorer.PaneMainList, listOffset(&r.listState, rowPx))
	return dims
}

func (r *Renderer) renderRow(gtx layout.Context, row explorer.Row, w *rowWidgets) layout.Dimensions {
	return material.Clickable(gtx, &w.click, func(gtx layout.Context) layout.Dimensions {
		return layout.Stack{}.Layout(gtx,
			// Selection highlight background
			layout.Expanded(func(gtx layout.Context) layout.Dimensions {
				if row.Selected {
					paint.FillShape(gtx.Ops, colSelected, clip.Rect{Max: gtx.Constraints.Min}.Op())
				}
				return layout.Dimensions{Size: gtx.Constraints.Min}
			}),
			layout.Stacked(func(gtx layout.Context) layout.Dimensions {
				return r.renderRowContent(gtx, row)
			}),
		)
	})
}

func (r *Renderer) renderRowContent(gtx layout.Context, row explorer.Row) layout.Dimensions {
	isDir := explorer.IsDir(row.Item)
	textColor, weight := colBlack, font.Normal
	name := row.Name
	if isDir {
		name += "/"
		textColor, weight = colDirBlue, font.Bold
	}

	sizeStr := ""
	if !isDir {
		sizeStr = formatSize(itemSize(row.Item))
	}

	return layout.Inset{Left: unit.Dp(12), Right: unit.Dp(12)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return r.renderThumb(gtx, row.Thumb, gtx.Dp(24))
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(10)}.Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				lbl := material.Body1(r.Theme, name)
				lbl.Color = textColor
				lbl.Font.Weight = weight
				lbl.MaxLines = 1
				return lbl.Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				gtx.Constraints.Min.X = gtx.Dp(90)
				lbl := material.Body2(r.Theme, row.Kind.String())
				lbl.Color = colGray
				return lbl.Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				gtx.Constraints.Min.X = gtx.Dp(80)
				lbl := material.Body2(r.Theme, sizeStr)
				lbl.Color = colGray
				return lbl.Layout(gtx)
			}),
		)
	})
}

// renderThumb draws the resolved thumbnail, falling back to an icon tile
// while the image is not decoded yet.
func (r *Renderer) renderThumb(gtx layout.Context, thumb explorer.Thumb, size int) layout.Dimensions {
	if thumb.Source == explorer.ThumbImage && r.Thumbs != nil && r.Files != nil {
		if path, ok := r.Files.ThumbnailFile(thumb.URL); ok {
			if img, _, ok := r.Thumbs.Lookup(path); ok {
				gtx.Constraints = layout.Exact(image.Pt(size, size))
				return widget.Image{Src: img, Fit: widget.Contain}.Layout(gtx)
			}
			r.Thumbs.Want(path)
		}
		return r.iconTile(gtx, explorer.Thumb{Source: explorer.ThumbGeneric, Icon: "img"}, size)
	}
	return r.iconTile(gtx, thumb, size)
}

func itemSize(it explorer.Item) int64 {
	switch v := it.(type) {
	case *explorer.Path:
		return v.Size
	case *explorer.Object:
		return v.Size
	}
	return -1
}
