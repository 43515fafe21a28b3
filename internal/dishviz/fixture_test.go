package dishviz

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/lukaszgryglicki/dishviz/internal/archive"
	"github.com/stretchr/testify/require"
)

// fakeArchive is an in-memory Archive. It is read-only once built, so it can be
// shared by concurrent renderers.
type fakeArchive struct {
	levels int
	pop    int
	live   map[int]*archive.Grid[bool]
	death  map[int]*archive.Grid[int64]
	share  map[int]*archive.Grid[float64]
	chans  map[[2]int]*archive.Grid[uint64]
	reads  int64
	closed int64
}

func newFakeArchive(levels, pop int) *fakeArchive {
	return &fakeArchive{
		levels: levels,
		pop:    pop,
		live:   map[int]*archive.Grid[bool]{},
		death:  map[int]*archive.Grid[int64]{},
		share:  map[int]*archive.Grid[float64]{},
		chans:  map[[2]int]*archive.Grid[uint64]{},
	}
}

func missing(group string, update int) error {
	return fmt.Errorf("%w: %s at update %d", archive.ErrNotFound, group, update)
}

func (f *fakeArchive) Levels(context.Context) (int, error)         { return f.levels, nil }
func (f *fakeArchive) PopulationSize(context.Context) (int, error) { return f.pop, nil }

func (f *fakeArchive) Live(_ context.Context, u int) (*archive.Grid[bool], error) {
	atomic.AddInt64(&f.reads, 1)
	if g, ok := f.live[u]; ok {
		return g, nil
	}
	return nil, missing(archive.GroupLive, u)
}

func (f *fakeArchive) Death(_ context.Context, u int) (*archive.Grid[int64], error) {
	atomic.AddInt64(&f.reads, 1)
	if g, ok := f.death[u]; ok {
		return g, nil
	}
	return nil, missing(archive.GroupDeath, u)
}

func (f *fakeArchive) Share(_ context.Context, u int) (*archive.Grid[float64], error) {
	atomic.AddInt64(&f.reads, 1)
	if g, ok := f.share[u]; ok {
		return g, nil
	}
	return nil, missing(archive.GroupShare, u)
}

func (f *fakeArchive) Channel(_ context.Context, level, u int) (*archive.Grid[uint64], error) {
	atomic.AddInt64(&f.reads, 1)
	if g, ok := f.chans[[2]int{level, u}]; ok {
		return g, nil
	}
	return nil, missing(archive.ChannelGroup(level), u)
}

func (f *fakeArchive) Close() error {
	atomic.AddInt64(&f.closed, 1)
	return nil
}

func uniform[T archive.Cell](h, w int, v T) *archive.Grid[T] {
	g := archive.NewGrid[T](h, w)
	for i := range g.Data {
		g.Data[i] = v
	}
	return g
}

func mustGrid[T archive.Cell](t *testing.T, rows [][]T) *archive.Grid[T] {
	t.Helper()
	g, err := archive.GridOf(rows)
	require.NoError(t, err)
	return g
}

// useArchives swaps OpenArchive for a lookup in byPath for the duration of the test.
func useArchives(t *testing.T, byPath map[string]Archive) *int64 {
	t.Helper()
	var opened int64
	prev := OpenArchive
	OpenArchive = func(path string) (Archive, error) {
		atomic.AddInt64(&opened, 1)
		if a, ok := byPath[path]; ok {
			return a, nil
		}
		return nil, fmt.Errorf("%w: %s", archive.ErrNotFound, path)
	}
	t.Cleanup(func() { OpenArchive = prev })
	return &opened
}

func archiveName(seed, treat, source string) string {
	return "seed=" + seed + "+treat=" + treat + "+_source_hash=" + source + "+ext=.sqlite"
}

// writeArchive creates a 3x4 two-level SQLite archive with updates 0, 1 and 2.
// Cell (0,0) is dead from update 1 on, cell (3,2) died of apoptosis at update 2.
func writeArchive(t *testing.T, dir, seed, treat, source string) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(dir, archiveName(seed, treat, source))
	w, err := archive.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	require.NoError(t, w.SetAttr(ctx, archive.AttrLevels, strconv.Itoa(2)))
	ids := make([]uint64, 10)
	for i := range ids {
		ids[i] = uint64(i)
	}
	require.NoError(t, w.PutIndex(ctx, ids))

	for u := 0; u < 3; u++ {
		live := uniform(3, 4, true)
		death := uniform[int64](3, 4, 0)
		share := archive.NewGrid[float64](3, 4)
		for i := range share.Data {
			share.Data[i] = float64(i * (u + 1))
		}
		if u >= 1 {
			live.Set(0, 0, false)
			death.Set(0, 0, 2)
		}
		if u == 2 {
			death.Set(3, 2, 1)
		}
		lev0 := mustGrid(t, [][]uint64{{1, 1, 2, 2}, {1, 1, 2, 2}, {3, 3, 4, 4}})
		lev1 := mustGrid(t, [][]uint64{{1, 1, 1, 1}, {1, 1, 1, 1}, {2, 2, 2, 2}})
		require.NoError(t, archive.PutGrid(ctx, w, archive.GroupLive, u, live))
		require.NoError(t, archive.PutGrid(ctx, w, archive.GroupDeath, u, death))
		require.NoError(t, archive.PutGrid(ctx, w, archive.GroupShare, u, share))
		require.NoError(t, archive.PutGrid(ctx, w, archive.ChannelGroup(0), u, lev0))
		require.NoError(t, archive.PutGrid(ctx, w, archive.ChannelGroup(1), u, lev1))
	}
	return path
}

// testConfig renders small figures and keeps progress output quiet.
func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.OutDir = t.TempDir()
	cfg.Quiet = true
	cfg.FigureInches = 2
	cfg.DPI = 40
	cfg.Workers = 2
	return cfg
}
