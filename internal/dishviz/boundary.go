package dishviz

import (
	"github.com/lukaszgryglicki/dishviz/internal/archive"
)

// Segment is a lattice edge in cell-corner coordinates.
type Segment struct {
	X0, Y0, X1, Y1 int
}

// LineStyle describes how a boundary layer is stroked.
type LineStyle struct {
	Gray   float64 // 0 is black
	Dotted bool
}

var (
	solidBlack = LineStyle{}
	dottedGray = LineStyle{Gray: level0Gray, Dotted: true}
)

// BoundaryLayer is one set of segments drawn with a single style.
type BoundaryLayer struct {
	Name     string
	Style    LineStyle
	Segments []Segment
}

// Boundaries returns the edges between adjacent cells whose identities differ.
func Boundaries[T archive.Cell](ids *archive.Grid[T]) []Segment {
	var segs []Segment
	forEachNeighbor(ids.Height, ids.Width, func(x, y, nx, ny int) {
		if ids.At(x, y) != ids.At(nx, ny) {
			segs = append(segs, sharedEdge(x, y, nx, ny))
		}
	})
	return segs
}

// Outline returns a uniform per-cell grid: every lattice line across the full extent.
func Outline(h, w int) []Segment {
	segs := make([]Segment, 0, h+w+2)
	for x := 0; x <= w; x++ {
		segs = append(segs, Segment{X0: x, Y0: 0, X1: x, Y1: h})
	}
	for y := 0; y <= h; y++ {
		segs = append(segs, Segment{X0: 0, Y0: y, X1: w, Y1: y})
	}
	return segs
}
