package dishviz

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lukaszgryglicki/dishviz/internal/keyname"
	"go.uber.org/zap"
)

// RenderBatch renders every requested update of one archive to PNG and, when
// cfg.Animate is set, stitches the frames into one animation. It returns the frame
// paths in update order, followed by the animation path if one was written.
func RenderBatch(ctx context.Context, cfg *Config, path string, updates []int, mode Mode) ([]string, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("no updates to render")
	}
	seen := make(map[int]struct{}, len(updates))
	for _, u := range updates {
		if _, dup := seen[u]; dup {
			return nil, fmt.Errorf("update %d requested twice", u)
		}
		seen[u] = struct{}{}
	}
	am, err := keyname.ArchiveMetaOf(path)
	if err != nil {
		return nil, err
	}
	base := map[string]string{keyname.KeySeed: am.Seed, keyname.KeyTreat: am.Treat}

	a, err := OpenArchive(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	shareMax := 1.0
	if mode == ModeSharing {
		if shareMax, err = ShareMax(ctx, a, updates); err != nil {
			return nil, err
		}
	}

	type rendered struct {
		frame *Frame // only kept when an animation follows
		path  string
	}
	start := time.Now()
	results, err := RunParallel(ctx, updates, func(ctx context.Context, u int) (rendered, error) {
		f, err := RenderUpdate(ctx, a, u, mode, shareMax)
		if err != nil {
			return rendered{}, err
		}
		extra := map[string]string{keyname.KeyUpdate: strconv.Itoa(u)}
		for k, v := range base {
			extra[k] = v
		}
		name, err := outputName(mode.title(), []string{path}, am.SourceHash, extra, ".png")
		if err != nil {
			return rendered{}, err
		}
		out := filepath.Join(cfg.OutDir, name)
		if err := SaveFramePNG(f, out, cfg); err != nil {
			return rendered{}, fmt.Errorf("save update %d: %w", u, err)
		}
		if cfg.Animate == AnimNone {
			f = nil
		}
		return rendered{frame: f, path: out}, nil
	}, BatchOptions{Policy: FailFast, Workers: cfg.Workers, Progress: cfg.progress(mode.String())})
	if err != nil {
		return nil, err
	}
	DebugLog("Rendered %d %s frames in %s", len(results), mode, time.Since(start))

	paths := make([]string, 0, len(results)+1)
	for _, r := range results {
		paths = append(paths, r.path)
	}
	Log.Info("frames saved", zap.String("archive", path), zap.Stringer("mode", mode), zap.Int("count", len(paths)))

	if cfg.Animate == AnimNone {
		return paths, nil
	}
	frames := make([]*Frame, 0, len(results))
	for _, r := range results {
		frames = append(frames, r.frame)
	}
	anim, err := saveAnimation(cfg, path, am.SourceHash, base, mode, frames)
	if err != nil {
		return nil, err
	}
	return append(paths, anim), nil
}

func saveAnimation(cfg *Config, path, source string, base map[string]string, mode Mode, frames []*Frame) (string, error) {
	name, err := outputName(mode.animTitle(), []string{path}, source, base, "."+cfg.Animate)
	if err != nil {
		return "", err
	}
	out := filepath.Join(cfg.OutDir, name)
	switch cfg.Animate {
	case AnimGIF:
		err = SaveAnimatedGIF(frames, out, cfg.AnimCellPx, cfg.AnimDelay)
	case AnimAVI:
		err = SaveAVI(frames, out, cfg.AnimCellPx, cfg.AnimFPS, cfg.JPEGQuality)
	default:
		err = fmt.Errorf("unknown animation format %q", cfg.Animate)
	}
	if err != nil {
		return "", err
	}
	Log.Info("animation saved", zap.String("path", out), zap.Int("frames", len(frames)))
	return out, nil
}

// RunCauseOfDeath aggregates death causes over [first, last) for every archive and
// writes the table to cfg.OutDir. It returns the table path.
func RunCauseOfDeath(ctx context.Context, cfg *Config, first, last int, paths []string) (string, error) {
	source, err := CheckProvenance(paths)
	if err != nil {
		return "", err
	}
	name, err := outputName(TitleCellDeath, paths, source, nil, ".csv")
	if err != nil {
		return "", err
	}
	out := filepath.Join(cfg.OutDir, name)

	start := time.Now()
	rows, err := AggregateMany(ctx, cfg, paths, first, last)
	if err != nil {
		return "", err
	}
	if err := writeTableFile(out, rows); err != nil {
		return "", err
	}
	DebugLog("Aggregated %d archives in %s", len(paths), time.Since(start))
	Log.Sugar().Infof("Output saved to %s", out)
	return out, nil
}
