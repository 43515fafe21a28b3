package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Cell is the set of element types a dataset can hold.
type Cell interface {
	bool | int64 | uint64 | float64
}

// DType tags the element type of a stored dataset.
type DType uint8

const (
	DTypeBool DType = iota + 1
	DTypeInt64
	DTypeUint64
	DTypeFloat64
)

func (d DType) String() string {
	switch d {
	case DTypeBool:
		return "bool"
	case DTypeInt64:
		return "int64"
	case DTypeUint64:
		return "uint64"
	case DTypeFloat64:
		return "float64"
	}
	return fmt.Sprintf("dtype(%d)", uint8(d))
}

func (d DType) size() int {
	if d == DTypeBool {
		return 1
	}
	return 8
}

func dtypeOf[T Cell]() DType {
	var zero T
	switch any(zero).(type) {
	case bool:
		return DTypeBool
	case int64:
		return DTypeInt64
	case uint64:
		return DTypeUint64
	default:
		return DTypeFloat64
	}
}

// Grid is a row-major 2-D array: Data[y*Width+x].
type Grid[T Cell] struct {
	Height, Width int
	Data          []T
}

// NewGrid allocates a zeroed h x w grid.
func NewGrid[T Cell](h, w int) *Grid[T] {
	return &Grid[T]{Height: h, Width: w, Data: make([]T, h*w)}
}

// GridOf builds a grid from rows; all rows must have the same length.
func GridOf[T Cell](rows [][]T) (*Grid[T], error) {
	h := len(rows)
	if h == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrShape)
	}
	w := len(rows[0])
	g := NewGrid[T](h, w)
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrShape, y, len(row), w)
		}
		copy(g.Data[y*w:], row)
	}
	return g, nil
}

// At returns the cell at column x, row y.
func (g *Grid[T]) At(x, y int) T { return g.Data[y*g.Width+x] }

// Set stores v at column x, row y.
func (g *Grid[T]) Set(x, y int, v T) { g.Data[y*g.Width+x] = v }

// SameShape reports whether both grids have identical dimensions.
func SameShape[A, B Cell](a *Grid[A], b *Grid[B]) bool {
	return a.Height == b.Height && a.Width == b.Width
}

func encodeGrid[T Cell](g *Grid[T]) ([]byte, error) {
	if g.Height < 0 || g.Width < 0 {
		return nil, fmt.Errorf("%w: negative dimensions %dx%d", ErrShape, g.Height, g.Width)
	}
	if len(g.Data) != g.Height*g.Width {
		return nil, fmt.Errorf("%w: data length %d, expected %d (H*W)", ErrShape, len(g.Data), g.Height*g.Width)
	}
	var buf bytes.Buffer
	buf.Grow(len(g.Data) * dtypeOf[T]().size())
	if err := binary.Write(&buf, binary.LittleEndian, g.Data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGrid[T Cell](h, w int, dt DType, data []byte) (*Grid[T], error) {
	want := dtypeOf[T]()
	if dt != want {
		return nil, fmt.Errorf("%w: dtype %s, expected %s", ErrCorrupt, dt, want)
	}
	if h < 0 || w < 0 || len(data) != h*w*want.size() {
		return nil, fmt.Errorf("%w: %d bytes for a %dx%d %s grid", ErrCorrupt, len(data), h, w, want)
	}
	g := NewGrid[T](h, w)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, g.Data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return g, nil
}
