package dishviz

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	stddraw "image/draw"
	"image/gif"
	"image/jpeg"
	"os"
	"path/filepath"
	"strconv"

	"github.com/icza/mjpeg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// rasterize draws a frame at cellPx pixels per cell with a caption band on top.
// Boundaries become 1px lines; dotted layers keep every 4th pixel.
func rasterize(f *Frame, cellPx int) *image.NRGBA {
	gw, gh := f.Width*cellPx, f.Height*cellPx
	img := image.NewNRGBA(image.Rect(0, 0, gw, gh+captionPx))
	stddraw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, stddraw.Src)

	grid := image.Rect(0, captionPx, gw, gh+captionPx)
	src := f.Image()
	xdraw.NearestNeighbor.Scale(img, grid, src, src.Bounds(), xdraw.Src, nil)

	for _, l := range f.Layers {
		g := toByte(l.Style.Gray)
		c := color.NRGBA{R: g, G: g, B: g, A: 0xFF}
		for _, sg := range l.Segments {
			// last lattice line sits on the last pixel row/column
			x0, x1 := min(sg.X0*cellPx, gw-1), min(sg.X1*cellPx, gw-1)
			y0, y1 := min(sg.Y0*cellPx, gh-1), min(sg.Y1*cellPx, gh-1)
			n := 0
			for y := y0; y <= y1; y++ {
				for x := x0; x <= x1; x++ {
					if !l.Style.Dotted || n%4 == 0 {
						img.SetNRGBA(x, y+captionPx, c)
					}
					n++
				}
			}
		}
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(2, captionPx-3),
	}
	d.DrawString("update " + strconv.Itoa(f.Update))
	return img
}

// SaveAnimatedGIF writes a GIF with one frame per update, in the order given.
// delay is in 100ths of a second (e.g., 5 => 20 fps).
func SaveAnimatedGIF(frames []*Frame, path string, cellPx, delay int) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to animate")
	}
	out := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(frames)),
		Delay:     make([]int, 0, len(frames)),
		LoopCount: 0,
	}
	for _, f := range frames {
		rgba := rasterize(f, cellPx)
		// Quantize to paletted for GIF
		pimg := image.NewPaletted(rgba.Bounds(), palette.Plan9)
		stddraw.FloydSteinberg.Draw(pimg, pimg.Bounds(), rgba, image.Point{})

		out.Image = append(out.Image, pimg)
		out.Delay = append(out.Delay, delay)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(fh, out); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

// SaveAVI writes an MJPEG AVI with one frame per update, in the order given.
func SaveAVI(frames []*Frame, path string, cellPx, fps, quality int) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to animate")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	first := rasterize(frames[0], cellPx)
	b := first.Bounds()
	aw, err := mjpeg.New(path, int32(b.Dx()), int32(b.Dy()), int32(fps))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	opts := &jpeg.Options{Quality: quality}
	for i, f := range frames {
		img := first
		if i > 0 {
			img = rasterize(f, cellPx)
		}
		if !img.Bounds().Eq(b) {
			aw.Close()
			return fmt.Errorf("update %d frame is %v, expected %v", f.Update, img.Bounds(), b)
		}
		buf.Reset()
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			aw.Close()
			return err
		}
		if err := aw.AddFrame(buf.Bytes()); err != nil {
			aw.Close()
			return err
		}
	}
	return aw.Close()
}
