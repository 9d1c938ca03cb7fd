package render

import (
	"math"

	"github.com/gdamore/tcell/v2"
)

// RGB stores explicit 8-bit color channels, decoupled from tcell
type RGB struct {
	R, G, B uint8
}

// RGBBlack is the cleared drawable color
var RGBBlack = RGB{0, 0, 0}

// clamp converts a [0, 1] channel to uint8 with rounding, NaN maps to 0
func clamp(v float32) uint8 {
	f := float64(v)
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}

// PixelRGB converts an RGBA32F texel to 8-bit color, alpha is ignored
func PixelRGB(px []float32) RGB {
	return RGB{R: clamp(px[0]), G: clamp(px[1]), B: clamp(px[2])}
}

// TcellToRGB converts tcell.Color to RGB, ColorDefault reads as black
func TcellToRGB(c tcell.Color) RGB {
	if c == tcell.ColorDefault {
		return RGBBlack
	}
	r, g, b := c.RGB()
	return RGB{uint8(r), uint8(g), uint8(b)}
}

// RGBToTcell converts RGB to tcell.Color
func RGBToTcell(rgb RGB) tcell.Color {
	return tcell.NewRGBColor(int32(rgb.R), int32(rgb.G), int32(rgb.B))
}
