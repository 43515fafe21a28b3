package dishviz

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/lukaszgryglicki/dishviz/internal/archive"
	"github.com/lukaszgryglicki/dishviz/internal/keyname"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// deathFixture has 10 population slots on a 3x4 grid. Slots past the population
// carry codes that must never be counted.
func deathFixture(updates int) *fakeArchive {
	a := newFakeArchive(1, 10)
	for u := 0; u < updates; u++ {
		g := uniform[int64](3, 4, 0)
		g.Data[10], g.Data[11] = 3, 3
		a.death[u] = g
	}
	return a
}

func TestCauseOfDeathRate(t *testing.T) {
	ctx := context.Background()
	a := deathFixture(5)
	a.death[1].Data[4] = 1
	a.death[3].Data[9] = 1

	rates, err := CauseOfDeath(ctx, a, 0, 5)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/50, rates[Apoptosis], 1e-12)
	assert.Equal(t, 0.0, rates[Bankrupt])
	assert.Equal(t, 0.0, rates[Replaced])
	assert.Len(t, rates, 3)
	_, hasAlive := rates[Alive]
	assert.False(t, hasAlive)
}

func TestCauseOfDeathSubrangeAndSum(t *testing.T) {
	ctx := context.Background()
	a := deathFixture(4)
	for i := 0; i < 10; i++ {
		a.death[2].Data[i] = int64(i%3 + 1)
	}
	a.death[0].Data[0] = 2 // outside [1, 3)

	rates, err := CauseOfDeath(ctx, a, 1, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0/20, rates[Apoptosis], 1e-12)
	assert.InDelta(t, 3.0/20, rates[Bankrupt], 1e-12)
	assert.InDelta(t, 3.0/20, rates[Replaced], 1e-12)
	sum := 0.0
	for _, r := range rates {
		assert.GreaterOrEqual(t, r, 0.0)
		sum += r
	}
	assert.LessOrEqual(t, sum, 1.0)
}

func TestCauseOfDeathErrors(t *testing.T) {
	ctx := context.Background()
	a := deathFixture(2)

	_, err := CauseOfDeath(ctx, a, 2, 2)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = CauseOfDeath(ctx, a, 3, 1)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = CauseOfDeath(ctx, a, 0, 3)
	assert.ErrorIs(t, err, archive.ErrNotFound)

	a.death[1].Data[0] = 9
	_, err = CauseOfDeath(ctx, a, 0, 2)
	assert.ErrorIs(t, err, ErrUnknownCause)

	big := deathFixture(1)
	big.pop = 13
	_, err = CauseOfDeath(ctx, big, 0, 1)
	assert.ErrorIs(t, err, archive.ErrCorrupt)

	empty := deathFixture(1)
	empty.pop = 0
	_, err = CauseOfDeath(ctx, empty, 0, 1)
	assert.ErrorIs(t, err, archive.ErrCorrupt)
}

func TestCheckProvenance(t *testing.T) {
	src, err := CheckProvenance([]string{
		"/data/" + archiveName("1", "a", "abc"),
		"/data/" + archiveName("2", "b", "abc"),
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", src)

	_, err = CheckProvenance([]string{archiveName("1", "a", "abc"), archiveName("2", "a", "xyz")})
	assert.ErrorIs(t, err, ErrProvenanceMismatch)

	_, err = CheckProvenance([]string{"seed=1+treat=a+ext=.sqlite"})
	assert.ErrorIs(t, err, keyname.ErrMissingKey)

	_, err = CheckProvenance(nil)
	assert.Error(t, err)
}

func TestAggregateManyProvenanceMismatchOpensNothing(t *testing.T) {
	opened := useArchives(t, nil)
	cfg := testConfig(t)
	_, err := AggregateMany(context.Background(), cfg, []string{
		archiveName("1", "a", "abc"),
		archiveName("2", "a", "xyz"),
	}, 0, 1)
	assert.ErrorIs(t, err, ErrProvenanceMismatch)
	assert.Zero(t, atomic.LoadInt64(opened))
}

func TestAggregateManySkipsFailingFiles(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	prevLog := Log
	Log = zap.New(core)
	t.Cleanup(func() { Log = prevLog })

	good1, good2 := deathFixture(2), deathFixture(2)
	good1.death[0].Data[0] = 1
	good2.death[1].Data[0] = 3
	corrupt := deathFixture(2)
	corrupt.death[1].Data[3] = 42

	p1 := archiveName("1", "even", "h")
	p2 := archiveName("2", "odd", "h")
	bad := archiveName("3", "odd", "h")
	gone := archiveName("4", "odd", "h")
	useArchives(t, map[string]Archive{p1: good1, p2: good2, bad: corrupt})

	rows, err := AggregateMany(context.Background(), testConfig(t), []string{p1, bad, p2, gone}, 0, 2)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	assert.Equal(t, Row{Treatment: "even", Seed: "1", Rate: 1.0 / 20, Cause: Apoptosis}, rows[0])
	assert.Equal(t, Bankrupt, rows[1].Cause)
	assert.Equal(t, Replaced, rows[2].Cause)
	assert.Equal(t, Row{Treatment: "odd", Seed: "2", Rate: 1.0 / 20, Cause: Replaced}, rows[5])

	skipped := logs.FilterMessage("skipping archive")
	require.Equal(t, 2, skipped.Len())
	files := map[string]bool{}
	for _, e := range skipped.All() {
		files[e.ContextMap()["file"].(string)] = true
		assert.NotEmpty(t, e.ContextMap()["error"])
	}
	assert.Equal(t, map[string]bool{bad: true, gone: true}, files)
	assert.EqualValues(t, 1, atomic.LoadInt64(&good1.closed))
	assert.EqualValues(t, 1, atomic.LoadInt64(&corrupt.closed))
}

func TestAggregateManyInvalidRange(t *testing.T) {
	opened := useArchives(t, nil)
	_, err := AggregateMany(context.Background(), testConfig(t), []string{archiveName("1", "a", "h")}, 5, 5)
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Zero(t, atomic.LoadInt64(opened))
}
