package dishviz

import (
	"context"
	"testing"

	"github.com/lukaszgryglicki/dishviz/internal/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sharingFixture(t *testing.T) *fakeArchive {
	a := newFakeArchive(2, 9)
	a.live[0] = uniform(3, 3, true)
	a.share[0] = mustGrid(t, [][]float64{{0, 0, 0}, {0, 4, 0}, {0, 0, 0}})
	a.chans[[2]int{0, 0}] = uniform[uint64](3, 3, 1)
	a.chans[[2]int{1, 0}] = uniform[uint64](3, 3, 1)
	return a
}

func TestRenderSharingNormalizesByBatchMax(t *testing.T) {
	ctx := context.Background()
	a := sharingFixture(t)
	most, err := ShareMax(ctx, a, []int{0})
	require.NoError(t, err)
	assert.Equal(t, 4.0, most)

	f, err := RenderUpdate(ctx, a, 0, ModeSharing, most)
	require.NoError(t, err)
	assert.Equal(t, 3, f.Width)
	assert.Equal(t, 3, f.Height)
	assert.Equal(t, RGB{0, 0, 1}, f.At(1, 1))
	for _, xy := range [][2]int{{1, 0}, {0, 1}, {2, 1}, {1, 2}} {
		assert.Equal(t, White, f.At(xy[0], xy[1]))
	}
	require.Len(t, f.Layers, 2)
	assert.Empty(t, f.Layers[0].Segments)
	assert.Empty(t, f.Layers[1].Segments)
	assert.True(t, f.Layers[0].Style.Dotted)
	assert.Equal(t, 0.5, f.Layers[0].Style.Gray)
	assert.Equal(t, solidBlack, f.Layers[1].Style)
}

func TestShareMaxDegenerate(t *testing.T) {
	ctx := context.Background()
	a := newFakeArchive(1, 4)
	a.share[0] = uniform[float64](2, 2, 0)
	most, err := ShareMax(ctx, a, []int{0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, most)

	most, err = ShareMax(ctx, a, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, most)

	_, err = ShareMax(ctx, a, []int{5})
	assert.ErrorIs(t, err, archive.ErrNotFound)
}

func TestShareMaxSpansAllUpdatesAndDeadCells(t *testing.T) {
	ctx := context.Background()
	a := newFakeArchive(1, 4)
	a.share[0] = mustGrid(t, [][]float64{{1, 2}, {3, 0}})
	a.share[1] = mustGrid(t, [][]float64{{0, 0}, {0, 6}})
	most, err := ShareMax(ctx, a, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 6.0, most)
}

func TestRenderDeadCellsAreBlack(t *testing.T) {
	ctx := context.Background()
	a := sharingFixture(t)
	a.live[0].Set(1, 1, false)
	a.death[0] = uniform[int64](3, 3, 2)
	a.death[0].Set(0, 0, 1)
	a.live[0].Set(0, 0, false)

	for _, mode := range []Mode{ModeDeath, ModeSharing} {
		f, err := RenderUpdate(ctx, a, 0, mode, 4)
		require.NoError(t, err, mode)
		assert.Equal(t, Black, f.At(1, 1), mode)
		assert.Equal(t, Black, f.At(0, 0), mode)
	}
}

func TestRenderDeathPalette(t *testing.T) {
	ctx := context.Background()
	a := newFakeArchive(1, 4)
	a.live[3] = uniform(2, 2, true)
	a.death[3] = mustGrid(t, [][]int64{{0, 1}, {2, 3}})
	f, err := RenderUpdate(ctx, a, 3, ModeDeath, 0)
	require.NoError(t, err)
	assert.Equal(t, White, f.At(0, 0))
	assert.Equal(t, RGB{0, 1, 0}, f.At(1, 0))
	assert.Equal(t, RGB{1, 0, 0}, f.At(0, 1))
	assert.Equal(t, RGB{0, 0, 1}, f.At(1, 1))
	require.Len(t, f.Layers, 1)
	assert.Equal(t, Outline(2, 2), f.Layers[0].Segments)

	a.death[3].Set(1, 1, 7)
	_, err = RenderUpdate(ctx, a, 3, ModeDeath, 0)
	assert.ErrorIs(t, err, ErrUnknownCause)
}

func TestRenderSingleLevelReusesLevelZero(t *testing.T) {
	ctx := context.Background()
	a := newFakeArchive(1, 4)
	a.live[0] = uniform(2, 2, true)
	a.share[0] = uniform[float64](2, 2, 1)
	a.chans[[2]int{0, 0}] = mustGrid(t, [][]uint64{{1, 2}, {1, 2}})
	f, err := RenderUpdate(ctx, a, 0, ModeSharing, 1)
	require.NoError(t, err)
	require.Len(t, f.Layers, 2)
	assert.Len(t, f.Layers[0].Segments, 2)
	assert.Equal(t, f.Layers[0].Segments, f.Layers[1].Segments)
}

func TestRenderLevelsDiffer(t *testing.T) {
	ctx := context.Background()
	a := newFakeArchive(2, 4)
	a.live[0] = uniform(2, 2, true)
	a.share[0] = uniform[float64](2, 2, 1)
	a.chans[[2]int{0, 0}] = mustGrid(t, [][]uint64{{1, 2}, {3, 4}})
	a.chans[[2]int{1, 0}] = mustGrid(t, [][]uint64{{1, 1}, {2, 2}})
	f, err := RenderUpdate(ctx, a, 0, ModeSharing, 1)
	require.NoError(t, err)
	assert.Len(t, f.Layers[0].Segments, 4)
	assert.Equal(t, []Segment{{X0: 0, Y0: 1, X1: 1, Y1: 1}, {X0: 1, Y0: 1, X1: 2, Y1: 1}}, f.Layers[1].Segments)
}

func TestRenderErrors(t *testing.T) {
	ctx := context.Background()
	a := sharingFixture(t)

	_, err := RenderUpdate(ctx, a, 9, ModeSharing, 1)
	assert.ErrorIs(t, err, archive.ErrNotFound)

	a.share[0] = uniform[float64](2, 3, 0)
	_, err = RenderUpdate(ctx, a, 0, ModeSharing, 1)
	assert.ErrorIs(t, err, archive.ErrShape)

	_, err = RenderUpdate(ctx, a, 0, Mode(9), 1)
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeDeath, ModeSharing} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("heat")
	assert.Error(t, err)
}

func TestFrameImage(t *testing.T) {
	f := &Frame{Width: 2, Height: 1, Pix: []RGB{Black, {0, 0, 1}}}
	img := f.Image()
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).B)
	assert.Equal(t, uint8(255), img.NRGBAAt(1, 0).B)
	assert.Equal(t, uint8(255), img.NRGBAAt(1, 0).A)
}
