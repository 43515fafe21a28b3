package dishviz

import (
	"context"
	"errors"
	"fmt"

	"github.com/lukaszgryglicki/dishviz/internal/archive"
	"github.com/lukaszgryglicki/dishviz/internal/keyname"
	"go.uber.org/zap"
)

var (
	ErrProvenanceMismatch = errors.New("archives come from different sources")
	ErrInvalidRange       = errors.New("invalid update range")
)

// Rates maps each death cause to its per-cell-update rate.
type Rates map[Cause]float64

// CauseOfDeath counts death causes over updates [first, last) and every population
// slot, normalized by population size times the number of updates. Every cause in
// DeathCauses is present, zero when never observed.
func CauseOfDeath(ctx context.Context, a Archive, first, last int) (Rates, error) {
	if last <= first {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, first, last)
	}
	size, err := a.PopulationSize(ctx)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: population size %d", archive.ErrCorrupt, size)
	}

	counts := make(map[Cause]int, len(DeathCauses)+1)
	for u := first; u < last; u++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		death, err := a.Death(ctx, u)
		if err != nil {
			return nil, err
		}
		if size > len(death.Data) {
			return nil, fmt.Errorf("%w: population %d exceeds %dx%d grid at update %d",
				archive.ErrCorrupt, size, death.Height, death.Width, u)
		}
		for i := 0; i < size; i++ {
			c, err := CauseOf(death.Data[i])
			if err != nil {
				return nil, fmt.Errorf("update %d, slot %d: %w", u, i, err)
			}
			counts[c]++
		}
	}

	denom := float64(size) * float64(last-first)
	rates := make(Rates, len(DeathCauses))
	for _, c := range DeathCauses {
		rates[c] = float64(counts[c]) / denom
	}
	DebugLog("Cause of death over [%d, %d) for %d slots: %v", first, last, size, counts)
	return rates, nil
}

// CheckProvenance returns the common source hash of paths, or ErrProvenanceMismatch.
// Only the filenames are inspected.
func CheckProvenance(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no archives given")
	}
	var source, from string
	for _, p := range paths {
		am, err := keyname.ArchiveMetaOf(p)
		if err != nil {
			return "", err
		}
		if from == "" {
			source, from = am.SourceHash, p
			continue
		}
		if am.SourceHash != source {
			return "", fmt.Errorf("%w: %s has %s=%s, %s has %s",
				ErrProvenanceMismatch, p, keyname.KeySourceHash, am.SourceHash, from, source)
		}
	}
	return source, nil
}

// Row is one line of the aggregation table.
type Row struct {
	Treatment string
	Seed      string
	Rate      float64
	Cause     Cause
}

// fileRates aggregates a single archive into rows in DeathCauses order.
func fileRates(ctx context.Context, path string, first, last int) ([]Row, error) {
	am, err := keyname.ArchiveMetaOf(path)
	if err != nil {
		return nil, err
	}
	a, err := OpenArchive(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	rates, err := CauseOfDeath(ctx, a, first, last)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(DeathCauses))
	for _, c := range DeathCauses {
		rows = append(rows, Row{Treatment: am.Treat, Seed: am.Seed, Rate: rates[c], Cause: c})
	}
	return rows, nil
}

// AggregateMany runs CauseOfDeath over every archive. Provenance is checked before any
// archive is opened. A file that fails is logged and left out of the result.
func AggregateMany(ctx context.Context, cfg *Config, paths []string, first, last int) ([]Row, error) {
	if last <= first {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, first, last)
	}
	if _, err := CheckProvenance(paths); err != nil {
		return nil, err
	}
	perFile, err := RunParallel(ctx, paths, func(ctx context.Context, p string) ([]Row, error) {
		return fileRates(ctx, p, first, last)
	}, BatchOptions{
		Policy:   IsolateFailures,
		Workers:  cfg.Workers,
		Progress: cfg.progress("cod"),
		OnFailure: func(i int, err error) {
			Log.Warn("skipping archive", zap.String("file", paths[i]), zap.Error(err))
		},
	})
	if err != nil {
		return nil, err
	}
	var rows []Row
	for _, r := range perFile {
		rows = append(rows, r...)
	}
	if skipped := len(paths) - len(perFile); skipped > 0 {
		Log.Info("aggregation finished with skipped archives",
			zap.Int("used", len(perFile)), zap.Int("skipped", skipped))
	}
	return rows, nil
}
