package dishviz

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/lukaszgryglicki/dishviz/internal/archive"
)

// Mode selects how cells are colored.
type Mode uint8

const (
	ModeDeath Mode = iota
	ModeSharing
)

func (m Mode) String() string {
	switch m {
	case ModeDeath:
		return "death"
	case ModeSharing:
		return "sharing"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode accepts "death" or "sharing".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "death":
		return ModeDeath, nil
	case "sharing":
		return ModeSharing, nil
	}
	return 0, fmt.Errorf("unknown render mode %q", s)
}

func (m Mode) title() string {
	if m == ModeSharing {
		return TitleSharingViz
	}
	return TitleDeathViz
}

func (m Mode) animTitle() string {
	if m == ModeSharing {
		return TitleSharingAnim
	}
	return TitleDeathAnim
}

// Frame is one reconstructed update: per-cell colors plus boundary overlays.
type Frame struct {
	Update        int
	Mode          Mode
	Width, Height int
	Pix           []RGB // row-major, Pix[y*Width+x]
	Layers        []BoundaryLayer
}

// At returns the color of cell (x, y).
func (f *Frame) At(x, y int) RGB { return f.Pix[y*f.Width+x] }

// Image returns the frame colors as a W x H image, one pixel per cell.
func (f *Frame) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		rowOff := y * img.Stride
		for x := 0; x < f.Width; x++ {
			c := f.At(x, y).NRGBA()
			p := rowOff + x*4
			img.Pix[p+0] = c.R
			img.Pix[p+1] = c.G
			img.Pix[p+2] = c.B
			img.Pix[p+3] = c.A
		}
	}
	return img
}

// ShareMax returns the largest share value over every cell of every update, or 1 when
// that maximum is exactly zero (or there are no updates). All frames of one sharing
// batch are normalized by this value.
func ShareMax(ctx context.Context, a Archive, updates []int) (float64, error) {
	most := math.Inf(-1)
	for _, upd := range updates {
		share, err := a.Share(ctx, upd)
		if err != nil {
			return 0, err
		}
		for _, v := range share.Data {
			if !isFinite(v) {
				return 0, fmt.Errorf("%w: non-finite share value at update %d", archive.ErrCorrupt, upd)
			}
			if v > most {
				most = v
			}
		}
	}
	if most == 0 || math.IsInf(most, -1) {
		most = 1
	}
	DebugLog("Share maximum over %d updates: %g", len(updates), most)
	return most, nil
}

func checkShape[A, B archive.Cell](name string, update int, ref *archive.Grid[A], g *archive.Grid[B]) error {
	if !archive.SameShape(ref, g) {
		return fmt.Errorf("%w: %s at update %d is %dx%d, expected %dx%d",
			archive.ErrShape, name, update, g.Height, g.Width, ref.Height, ref.Width)
	}
	return nil
}

// RenderUpdate reconstructs one frame. shareMax is only used in sharing mode.
func RenderUpdate(ctx context.Context, a Archive, update int, mode Mode, shareMax float64) (*Frame, error) {
	live, err := a.Live(ctx, update)
	if err != nil {
		return nil, err
	}
	f := &Frame{
		Update: update,
		Mode:   mode,
		Width:  live.Width,
		Height: live.Height,
		Pix:    make([]RGB, len(live.Data)),
	}

	switch mode {
	case ModeDeath:
		death, err := a.Death(ctx, update)
		if err != nil {
			return nil, err
		}
		if err := checkShape(archive.GroupDeath, update, live, death); err != nil {
			return nil, err
		}
		for i, alive := range live.Data {
			if !alive {
				f.Pix[i] = Black
				continue
			}
			cause, err := CauseOf(death.Data[i])
			if err != nil {
				return nil, fmt.Errorf("update %d, cell (%d,%d): %w", update, i%f.Width, i/f.Width, err)
			}
			f.Pix[i] = cause.Color()
		}
		f.Layers = []BoundaryLayer{{Name: "outline", Style: solidBlack, Segments: Outline(f.Height, f.Width)}}

	case ModeSharing:
		if shareMax <= 0 || !isFinite(shareMax) {
			shareMax = 1
		}
		share, err := a.Share(ctx, update)
		if err != nil {
			return nil, err
		}
		if err := checkShape(archive.GroupShare, update, live, share); err != nil {
			return nil, err
		}
		for i, alive := range live.Data {
			if !alive {
				f.Pix[i] = Black
				continue
			}
			f.Pix[i] = shareColor(share.Data[i], shareMax)
		}
		layers, err := channelLayers(ctx, a, update, live)
		if err != nil {
			return nil, err
		}
		f.Layers = layers

	default:
		return nil, fmt.Errorf("unknown render mode %v", mode)
	}
	DebugLog("Rendered %s frame for update %d: %dx%d, %d layers", mode, update, f.Width, f.Height, len(f.Layers))
	return f, nil
}

// channelLayers builds the level 0 (dotted gray) and level 1 (solid black) boundary
// layers. A single-level archive reuses level 0 for the level 1 layer.
func channelLayers(ctx context.Context, a Archive, update int, live *archive.Grid[bool]) ([]BoundaryLayer, error) {
	nlev, err := a.Levels(ctx)
	if err != nil {
		return nil, err
	}
	lev0, err := a.Channel(ctx, 0, update)
	if err != nil {
		return nil, err
	}
	if err := checkShape(archive.ChannelGroup(0), update, live, lev0); err != nil {
		return nil, err
	}
	lev1 := lev0
	if nlev > 1 {
		if lev1, err = a.Channel(ctx, 1, update); err != nil {
			return nil, err
		}
		if err := checkShape(archive.ChannelGroup(1), update, live, lev1); err != nil {
			return nil, err
		}
	}
	return []BoundaryLayer{
		{Name: "level 0", Style: dottedGray, Segments: Boundaries(lev0)},
		{Name: "level 1", Style: solidBlack, Segments: Boundaries(lev1)},
	}, nil
}
