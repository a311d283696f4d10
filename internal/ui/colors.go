package ui

import "image/color"

// Theme colors
var (
	colWhite     = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	colBlack     = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	colGray      = color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	colLightGray = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	colDirBlue   = color.NRGBA{R: 0, G: 0, B: 128, A: 255}
	colSelected  = color.NRGBA{R: 200, G: 220, B: 255, A: 255}
	colSidebar   = color.NRGBA{R: 245, G: 245, B: 245, A: 255}
	colDanger    = color.NRGBA{R: 220, G: 53, B: 69, A: 255}
	colSuccess   = color.NRGBA{R: 40, G: 167, B: 69, A: 255}
	colAccent    = color.NRGBA{R: 66, G: 133, B: 244, A: 255}
	colSeparator = color.NRGBA{A: 50}
	// Config error banner colors
	colErrorBannerBg   = color.NRGBA{R: 220, G: 53, B: 69, A: 255}
	colErrorBannerText = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	// Modal colors
	colShadow   = color.NRGBA{R: 0, G: 0, B: 0, A: 60}
	colBackdrop = color.NRGBA{R: 0, G: 0, B: 0, A: 180}
	// Icon tile colors by source
	colIconFolder = color.NRGBA{R: 96, G: 125, B: 139, A: 255}
	colIconKind   = color.NRGBA{R: 103, G: 58, B: 183, A: 255}
	colIconExt    = color.NRGBA{R: 66, G: 133, B: 244, A: 255}
	colIconFile   = color.NRGBA{R: 150, G: 150, B: 150, A: 255}
)
