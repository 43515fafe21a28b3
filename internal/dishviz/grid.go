package dishviz

// forEachNeighbor visits every (cell, right neighbor) and (cell, down neighbor) pair of
// an h x w lattice. Directions that would leave the lattice are skipped.
func forEachNeighbor(h, w int, fn func(x, y, nx, ny int)) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x+1 < w {
				fn(x, y, x+1, y)
			}
			if y+1 < h {
				fn(x, y, x, y+1)
			}
		}
	}
}

// sharedEdge returns the lattice edge between two orthogonally adjacent cells, in
// cell-corner coordinates (cell (x,y) spans [x,x+1] x [y,y+1], y grows downward).
func sharedEdge(x, y, nx, ny int) Segment {
	if nx != x {
		return Segment{X0: nx, Y0: y, X1: nx, Y1: y + 1}
	}
	return Segment{X0: x, Y0: ny, X1: x + 1, Y1: ny}
}
