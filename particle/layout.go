package particle

import (
	"github.com/lixenwraith/gravfield/vmath"
)

// GridWidth is the fixed texel row width; 4096 is the minimum 2D texture width
// guaranteed by WebGL2-class backends
const GridWidth = 4096

// Layout maps particle indices onto a GridWidth-wide texel grid
// Cells at index >= Count are padding
type Layout struct {
	Count  int
	Width  int
	Height int
}

// NewLayout sizes a grid for count particles
func NewLayout(count int) Layout {
	return Layout{
		Count:  count,
		Width:  GridWidth,
		Height: vmath.CeilDiv(count, GridWidth),
	}
}

// Cells returns the grid capacity including padding
func (l Layout) Cells() int {
	return l.Width * l.Height
}

// Padding returns the number of unused trailing cells
func (l Layout) Padding() int {
	return l.Cells() - l.Count
}

// Floats returns the length of an RGBA32F buffer covering the grid
func (l Layout) Floats() int {
	return l.Cells() * 4
}

// Cell returns the texel coordinates of particle i
func Cell(i int) (x, y int) {
	return i % GridWidth, i / GridWidth
}

// Index returns the particle index stored at texel (x, y)
func Index(x, y int) int {
	return y*GridWidth + x
}
