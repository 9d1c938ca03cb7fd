// Package render presents the device drawable on a terminal.
// Each cell shows two vertically stacked pixels using the upper half block,
// so a cols x rows terminal carries a cols x 2*rows drawable.
package render

import (
	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/gravfield/device"
)

// HalfBlock is drawn with the top pixel as foreground and the bottom as background
const HalfBlock = '▀' // ▀

// PixelsPerCell is the number of drawable rows per terminal row
const PixelsPerCell = 2

// PixelSource exposes the default drawable; *soft.Context implements it
type PixelSource interface {
	DrawableSize() (w, h int)
	ReadPixels(fb device.Framebuffer) []float32
}

// DrawableSize returns the pixel size matching a terminal of cols x rows cells
func DrawableSize(cols, rows int) (w, h int) {
	return cols, rows * PixelsPerCell
}

// CellToPixel maps a terminal cell to the drawable pixel at its top half,
// with the drawable origin at the bottom-left
func CellToPixel(col, row, drawableHeight int) (x, y int) {
	return col, drawableHeight - 1 - row*PixelsPerCell
}

// Presenter copies drawable pixels to a tcell screen
type Presenter struct {
	screen tcell.Screen
}

// NewPresenter creates a presenter for screen
func NewPresenter(screen tcell.Screen) *Presenter {
	return &Presenter{screen: screen}
}

// Present draws the source drawable into the screen without showing it
// Drawable row 0 is the bottom, terminal row 0 is the top; rows are flipped here
func (p *Presenter) Present(src PixelSource) {
	w, h := src.DrawableSize()
	pixels := src.ReadPixels(nil)
	cols, rows := p.screen.Size()

	at := func(x, y int) RGB {
		if x < 0 || y < 0 || x >= w || y >= h {
			return RGBBlack
		}
		i := 4 * (y*w + x)
		return PixelRGB(pixels[i : i+4])
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			x, top := CellToPixel(col, row, h)
			fg := at(x, top)
			bg := at(x, top-1)
			style := tcell.StyleDefault.Foreground(RGBToTcell(fg)).Background(RGBToTcell(bg))
			p.screen.SetContent(col, row, HalfBlock, nil, style)
		}
	}
}

// DrawText writes a single line over the presented frame, clipped at the right edge
func (p *Presenter) DrawText(col, row int, text string, fg, bg RGB) {
	cols, _ := p.screen.Size()
	style := tcell.StyleDefault.Foreground(RGBToTcell(fg)).Background(RGBToTcell(bg))
	for _, r := range text {
		if col >= cols {
			return
		}
		p.screen.SetContent(col, row, r, nil, style)
		col++
	}
}

// Show flushes the screen
func (p *Presenter) Show() {
	p.screen.Show()
}
