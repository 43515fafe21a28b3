package dishviz

import (
	"errors"
	"fmt"
	"image/color"
)

// RGB stores color components; each should be in [0,1].
type RGB struct {
	R, G, B float64
}

var (
	Black = RGB{0, 0, 0}
	White = RGB{1, 1, 1}
)

// clamp01 clamps each channel to [0,1].
func (c RGB) clamp01() RGB {
	return RGB{clamp01(c.R), clamp01(c.G), clamp01(c.B)}
}

// NRGBA quantizes to an opaque 8-bit color.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: toByte(c.R), G: toByte(c.G), B: toByte(c.B), A: 0xFF}
}

// Cause is the death-cause code recorded per cell.
type Cause uint8

const (
	Alive Cause = iota
	Apoptosis
	Bankrupt
	Replaced
)

// DeathCauses lists the causes reported by the aggregator, in output order.
var DeathCauses = []Cause{Apoptosis, Bankrupt, Replaced}

var ErrUnknownCause = errors.New("unknown death cause code")

// CauseOf converts a raw code. Codes outside the enumeration are an error.
func CauseOf(code int64) (Cause, error) {
	switch code {
	case 0:
		return Alive, nil
	case 1:
		return Apoptosis, nil
	case 2:
		return Bankrupt, nil
	case 3:
		return Replaced, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownCause, code)
}

func (c Cause) String() string {
	switch c {
	case Alive:
		return "Alive"
	case Apoptosis:
		return "Apoptosis"
	case Bankrupt:
		return "Bankrupt"
	case Replaced:
		return "Replaced"
	}
	return fmt.Sprintf("Cause(%d)", uint8(c))
}

// ParseCause is the inverse of String for the three death causes.
func ParseCause(s string) (Cause, error) {
	for _, c := range DeathCauses {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCause, s)
}

// Color is the death-mode palette entry of a live cell carrying this code.
func (c Cause) Color() RGB {
	switch c {
	case Alive:
		return White
	case Apoptosis:
		return RGB{0, 1, 0}
	case Bankrupt:
		return RGB{1, 0, 0}
	case Replaced:
		return RGB{0, 0, 1}
	}
	panic(fmt.Sprintf("no palette entry for %v", c))
}

// shareColor ramps from white (no sharing) to pure blue (batch maximum).
func shareColor(share, most float64) RGB {
	f := share / most
	return RGB{1 - f, 1 - f, 1}.clamp01()
}
