package dishviz

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// lineStyle converts a boundary style into a gonum stroke.
func (s LineStyle) lineStyle() draw.LineStyle {
	g := toByte(s.Gray)
	sty := draw.LineStyle{
		Color: color.NRGBA{R: g, G: g, B: g, A: 0xFF},
		Width: vg.Points(lineWidthPts),
	}
	if s.Dotted {
		sty.Dashes = []vg.Length{vg.Points(level0Dash), vg.Points(level0Gap)}
	}
	return sty
}

// segmentLayer draws a boundary layer on top of the cell image. Frame y grows
// downward, plot y grows upward, so y is flipped against the frame height.
type segmentLayer struct {
	layer  BoundaryLayer
	height float64
}

func (s segmentLayer) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	sty := s.layer.Style.lineStyle()
	for _, sg := range s.layer.Segments {
		c.StrokeLine2(sty,
			trX(float64(sg.X0)), trY(s.height-float64(sg.Y0)),
			trX(float64(sg.X1)), trY(s.height-float64(sg.Y1)),
		)
	}
}

// composeFrame lays out the cell image and every boundary layer without axes.
func composeFrame(f *Frame) *plot.Plot {
	w, h := float64(f.Width), float64(f.Height)
	p := plot.New()
	p.HideAxes()
	p.BackgroundColor = color.Transparent
	p.X.Padding, p.Y.Padding = 0, 0
	p.X.Min, p.X.Max = 0, w
	p.Y.Min, p.Y.Max = 0, h
	p.Add(plotter.NewImage(f.Image(), 0, 0, w, h))
	for _, l := range f.Layers {
		p.Add(segmentLayer{layer: l, height: h})
	}
	return p
}

// figureSize keeps the lattice aspect ratio with the long side at inches.
func figureSize(f *Frame, inches float64) (vg.Length, vg.Length) {
	long := vg.Length(inches) * vg.Inch
	if f.Width >= f.Height {
		return long, long * vg.Length(f.Height) / vg.Length(imax(f.Width, 1))
	}
	return long * vg.Length(f.Width) / vg.Length(imax(f.Height, 1)), long
}

// SaveFramePNG renders the composed frame to a transparent PNG.
func SaveFramePNG(f *Frame, path string, cfg *Config) error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("cannot draw an empty %dx%d frame", f.Width, f.Height)
	}
	if len(f.Pix) != f.Width*f.Height {
		return fmt.Errorf("Pix length mismatch: got %d, expected %d (W*H)", len(f.Pix), f.Width*f.Height)
	}
	w, h := figureSize(f, cfg.FigureInches)
	c := vgimg.NewWith(
		vgimg.UseWH(w, h),
		vgimg.UseDPI(cfg.DPI),
		vgimg.UseBackgroundColor(color.Transparent),
	)
	composeFrame(f).Draw(draw.New(c))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
