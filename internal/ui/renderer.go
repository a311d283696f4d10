package ui

import (
	"image"

	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/justyntemme/orbit/internal/config"
	"github.com/justyntemme/orbit/internal/debug"
	"github.com/justyntemme/orbit/internal/explorer"
)

// ThumbnailFiles maps a thumbnail URL to the file holding it.
type ThumbnailFiles interface {
	ThumbnailFile(url string) (string, bool)
}

type Renderer struct {
	Theme *material.Theme

	// RowHeight is the explorer row height in dp.
	RowHeight int
	// Thumbs decodes image thumbnails; nil renders icons only.
	Thumbs *ImageCache
	Files  ThumbnailFiles
	// OnScroll receives the scroll offset of a pane after every frame in
	// which it moved.
	OnScroll func(pane explorer.Pane, offset float32)
	// OnCredentials receives the unlock form whenever an editor changed.
	OnCredentials func(password, secretKey string)

	hotkeys *config.HotkeyMatcher
	focused bool

	listState      layout.List
	inspectorState layout.List
	sidebarState   layout.List
	lastOffsets    map[explorer.Pane]float32

	rows      []rowWidgets
	locations []locationWidgets

	backBtn      widget.Clickable
	inspectorBtn widget.Clickable
	devtoolsBtn  widget.Clickable
	configBtn    widget.Clickable
	addLocBtn    widget.Clickable

	// Key manager
	passwordEditor  widget.Editor
	secretKeyEditor widget.Editor
	revealPassword  widget.Bool
	revealSecretKey widget.Bool
	unlockBtn       widget.Clickable
	lockBtn         widget.Clickable
	formGen         uint64

	// Inspector
	encryptBtn widget.Clickable
	decryptBtn widget.Clickable

	// Dialogs
	alertOKBtn     widget.Clickable
	noticeOKBtn    widget.Clickable
	cryptoCloseBtn widget.Clickable
}

func NewRenderer() *Renderer {
	r := &Renderer{
		Theme:       material.NewTheme(),
		RowHeight:   36,
		lastOffsets: make(map[explorer.Pane]float32),
	}
	r.listState.Axis = layout.Vertical
	r.inspectorState.Axis = layout.Vertical
	r.sidebarState.Axis = layout.Vertical

	r.passwordEditor.SingleLine = true
	r.passwordEditor.Submit = true
	r.secretKeyEditor.SingleLine = true
	r.secretKeyEditor.Submit = true
	return r
}

// Layout draws one frame and returns the user action it produced, if any.
func (r *Renderer) Layout(gtx layout.Context, state *State) UIEvent {
	defer clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops).Pop()

	// Hotkeys are delivered while the explorer holds keyboard focus
	keyTag := r.keyTag()
	event.Op(gtx.Ops, keyTag)
	if !r.focused {
		gtx.Execute(key.FocusCmd{Tag: keyTag})
		r.focused = true
	}
	eventOut := r.processHotkeys(gtx, state, keyTag)

	paint.FillShape(gtx.Ops, colWhite, clip.Rect{Max: gtx.Constraints.Max}.Op())

	layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return r.layoutConfigBanner(gtx, state)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return r.layoutTopBar(gtx, state, &eventOut)
				}),
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							return r.layoutSidebar(gtx, state, &eventOut)
						}),
						layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
							return r.layoutFileList(gtx, state, &eventOut)
						}),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							if !state.View.InspectorVisible {
								return layout.Dimensions{}
							}
							return r.layoutInspector(gtx, state, &eventOut)
						}),
					)
				}),
			)
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			return r.layoutDialogs(gtx, state, &eventOut)
		}),
	)

	if eventOut.Action != ActionNone {
		debug.Log(debug.UI, "event: action=%d index=%d location=%d", eventOut.Action, eventOut.NewIndex, eventOut.Location)
	}
	return eventOut
}

func (r *Renderer) keyTag() event.Tag { return &r.listState }

// reportScroll forwards a pane offset when it moved since the last frame.
func (r *Renderer) reportScroll(pane explorer.Pane, offset float32) {
	if last, ok := r.lastOffsets[pane]; ok && last == offset {
		return
	}
	r.lastOffsets[pane] = offset
	if r.OnScroll != nil {
		r.OnScroll(pane, offset)
	}
}

// listOffset approximates the pixel scroll offset of a list of uniform rows.
func listOffset(l *layout.List, rowPx int) float32 {
	return float32(l.Position.First*rowPx + l.Position.Offset)
}

func (r *Renderer) layoutConfigBanner(gtx layout.Context, state *State) layout.Dimensions {
	if state.ConfigError == "" {
		return layout.Dimensions{}
	}
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			paint.FillShape(gtx.Ops, colErrorBannerBg, clip.Rect{Max: gtx.Constraints.Min}.Op())
			return layout.Dimensions{Size: gtx.Constraints.Min}
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			gtx.Constraints.Min.X = gtx.Constraints.Max.X
			return layout.UniformInset(unit.Dp(8)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				lbl := material.Body2(r.Theme, "Config error: "+state.ConfigError+" (using defaults)")
				lbl.Color = colErrorBannerText
				return lbl.Layout(gtx)
			})
		}),
	)
}

func (r *Renderer) layoutTopBar(gtx layout.Context, state *State, eventOut *UIEvent) layout.Dimensions {
	if r.backBtn.Clicked(gtx) && state.CanBack {
		*eventOut = UIEvent{Action: ActionBack}
	}
	if r.inspectorBtn.Clicked(gtx) {
		*eventOut = UIEvent{Action: ActionToggleInspector}
	}
	if r.devtoolsBtn.Clicked(gtx) {
		*eventOut = UIEvent{Action: ActionShowDevtools}
	}
	if r.configBtn.Clicked(gtx) {
		*eventOut = UIEvent{Action: ActionOpenConfig}
	}

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(unit.Dp(6)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
					layout.Rigid(r.button(&r.backBtn, "Back", ButtonNeutral, state.CanBack)),
					layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
					layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
						path := state.CurrentPath
						if path == "" {
							path = "/"
						}
						lbl := material.Body1(r.Theme, path)
						lbl.MaxLines = 1
						return lbl.Layout(gtx)
					}),
					layout.Rigid(r.button(&r.devtoolsBtn, "Devtools", ButtonNeutral, true)),
					layout.Rigid(layout.Spacer{Width: unit.Dp(4)}.Layout),
					layout.Rigid(r.button(&r.configBtn, "Config", ButtonNeutral, true)),
					layout.Rigid(layout.Spacer{Width: unit.Dp(4)}.Layout),
					layout.Rigid(r.button(&r.inspectorBtn, "Inspector", ButtonNeutral, true)),
				)
			})
		}),
		// The separator shows once any pane has scrolled past the threshold
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if !state.View.SeparateTopBar {
				return layout.Dimensions{}
			}
			h := gtx.Dp(1)
			size := image.Pt(gtx.Constraints.Max.X, h)
			paint.FillShape(gtx.Ops, colSeparator, clip.Rect{Max: size}.Op())
			return layout.Dimensions{Size: size}
		}),
	)
}

func (r *Renderer) layoutSidebar(gtx layout.Context, state *State, eventOut *UIEvent) layout.Dimensions {
	for len(r.locations) < len(state.Locations) {
		r.locations = append(r.locations, locationWidgets{})
	}
	for i, loc := range state.Locations {
		if r.locations[i].click.Clicked(gtx) {
			*eventOut = UIEvent{Action: ActionSelectLocation, Location: loc.ID}
		}
	}
	if r.addLocBtn.Clicked(gtx) {
		*eventOut = UIEvent{Action: ActionAddLocation}
	}

	width := gtx.Dp(220)
	gtx.Constraints.Min.X, gtx.Constraints.Max.X = width, width
	paint.FillShape(gtx.Ops, colSidebar, clip.Rect{Max: gtx.Constraints.Max}.Op())

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Top: unit.Dp(12), Left: unit.Dp(12), Bottom: unit.Dp(4)}.Layout(gtx,
				material.Caption(r.Theme, "LOCATIONS").Layout)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return r.sidebarState.Layout(gtx, len(state.Locations)+1, func(gtx layout.Context, i int) layout.Dimensions {
				if i == len(state.Locations) {
					return layout.UniformInset(unit.Dp(8)).Layout(gtx, r.button(&r.addLocBtn, "Add location", ButtonNeutral, true))
				}
				loc := state.Locations[i]
				return material.Clickable(gtx, &r.locations[i].click, func(gtx layout.Context) layout.Dimensions {
					return layout.Stack{}.Layout(gtx,
						layout.Expanded(func(gtx layout.Context) layout.Dimensions {
							if loc.ID == state.LocationID {
								paint.FillShape(gtx.Ops, colSelected, clip.Rect{Max: gtx.Constraints.Min}.Op())
							}
							return layout.Dimensions{Size: gtx.Constraints.Min}
						}),
						layout.Stacked(func(gtx layout.Context) layout.Dimensions {
							gtx.Constraints.Min.X = gtx.Constraints.Max.X
							return layout.Inset{Top: unit.Dp(8), Bottom: unit.Dp(8), Left: unit.Dp(12), Right: unit.Dp(12)}.Layout(gtx,
								func(gtx layout.Context) layout.Dimensions {
									lbl := material.Body1(r.Theme, loc.Name)
									lbl.Color = colDirBlue
									lbl.MaxLines = 1
									return lbl.Layout(gtx)
								})
						}),
					)
				})
			})
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return r.layoutKeyManager(gtx, state, eventOut)
		}),
	)
}
