package dishviz

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/lukaszgryglicki/dishviz/internal/fileshash"
	"github.com/lukaszgryglicki/dishviz/internal/keyname"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	summaryBarWidth   = 40
	summaryBarSpacing = 16
	summaryMargin     = 120
)

// summaryBar is the mean rate of one (treatment, cause) pair.
type summaryBar struct {
	Treatment string
	Cause     Cause
	Mean      float64
}

// summarize averages the rate per (treatment, cause), treatments sorted, causes in
// DeathCauses order.
func summarize(rows []Row) []summaryBar {
	type key struct {
		treat string
		cause Cause
	}
	sums := make(map[key]float64)
	counts := make(map[key]int)
	treats := make(map[string]struct{})
	for _, r := range rows {
		k := key{r.Treatment, r.Cause}
		sums[k] += r.Rate
		counts[k]++
		treats[r.Treatment] = struct{}{}
	}
	names := make([]string, 0, len(treats))
	for t := range treats {
		names = append(names, t)
	}
	sort.Strings(names)

	var bars []summaryBar
	for _, t := range names {
		for _, c := range DeathCauses {
			k := key{t, c}
			if counts[k] == 0 {
				continue
			}
			bars = append(bars, summaryBar{Treatment: t, Cause: c, Mean: sums[k] / float64(counts[k])})
		}
	}
	return bars
}

func chartColor(c RGB) drawing.Color {
	n := c.NRGBA()
	return drawing.Color{R: n.R, G: n.G, B: n.B, A: n.A}
}

// summaryChart builds the bar chart; width grows with the number of bars.
func summaryChart(bars []summaryBar, cfg *Config) chart.BarChart {
	values := make([]chart.Value, 0, len(bars))
	most := 0.0
	for _, b := range bars {
		values = append(values, chart.Value{
			Label: b.Treatment + " " + b.Cause.String(),
			Value: b.Mean,
			Style: chart.Style{
				FillColor:   chartColor(b.Cause.Color()),
				StrokeColor: chart.ColorBlack,
				StrokeWidth: 1,
			},
		})
		most = math.Max(most, b.Mean)
	}
	if most <= 0 {
		most = 1
	}
	width := imax(cfg.SummaryWidth, len(bars)*(summaryBarWidth+summaryBarSpacing)+summaryMargin)
	return chart.BarChart{
		Title:      "Per-Cell-Update Death Rate",
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      width,
		Height:     cfg.SummaryHeight,
		BarWidth:   summaryBarWidth,
		BarSpacing: summaryBarSpacing,
		YAxis: chart.YAxis{
			Name:  "Per-Cell-Update Death Rate",
			Range: &chart.ContinuousRange{Min: 0, Max: most * 1.1},
		},
		Bars: values,
	}
}

// PlotSummary draws the mean death rate per treatment and cause from an aggregation
// table and returns the written PNG path.
func PlotSummary(cfg *Config, csvPath string) (string, error) {
	rows, err := readTableFile(csvPath)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%s: table has no rows", csvPath)
	}
	meta, err := keyname.Unpack(csvPath)
	if err != nil {
		return "", err
	}
	source, ok := meta[keyname.KeySourceHash]
	if !ok {
		return "", fmt.Errorf("%w: %s in %s", keyname.ErrMissingKey, keyname.KeySourceHash, filepath.Base(csvPath))
	}
	out, err := outputName(TitleCellDeathChart, []string{csvPath}, source, nil, ".png")
	if err != nil {
		return "", err
	}
	out = filepath.Join(cfg.OutDir, out)

	bars := summarize(rows)
	graph := summaryChart(bars, cfg)
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return "", err
	}
	fh, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if err := graph.Render(chart.PNG, fh); err != nil {
		fh.Close()
		return "", fmt.Errorf("render summary chart: %w", err)
	}
	if err := fh.Close(); err != nil {
		return "", err
	}
	Log.Sugar().Infof("Summary chart saved to %s (%d bars)", out, len(bars))
	return out, nil
}

// outputName packs the provenance of an artifact built from inputs: their data hash,
// the running program's hash and the common source hash, plus any extra keys.
func outputName(title string, inputs []string, source string, extra map[string]string, ext string) (string, error) {
	dataHash, err := fileshash.Data.HashFiles(inputs)
	if err != nil {
		return "", err
	}
	scriptHash, err := fileshash.ScriptHash()
	if err != nil {
		return "", err
	}
	meta := map[string]string{
		keyname.KeyTitle:      title,
		keyname.KeyDataHash:   dataHash,
		keyname.KeyScriptHash: scriptHash,
		keyname.KeySourceHash: source,
		keyname.KeyExt:        ext,
	}
	for k, v := range extra {
		meta[k] = v
	}
	return keyname.Pack(meta)
}
