package dishviz

const (
	DefaultOutDir        = "."
	DefaultFigureInches  = 18.0 // long side of a rendered frame
	DefaultDPI           = 100
	DefaultAnimCellPx    = 4
	DefaultAnimDelay     = 5 // 100ths of a second per GIF frame
	DefaultAnimFPS       = 5
	DefaultJPEGQuality   = 75
	DefaultSummaryWidth  = 1024
	DefaultSummaryHeight = 512
	// frame overlay styles
	level0Gray   = 0.5
	level0Dash   = 1.0 // points
	level0Gap    = 3.0 // points
	lineWidthPts = 1.0
	captionPx    = 16 // caption band above animation frames
)

// Output titles.
const (
	TitleDeathViz       = "death_viz"
	TitleSharingViz     = "sharing_viz"
	TitleDeathAnim      = "death_anim"
	TitleSharingAnim    = "sharing_anim"
	TitleCellDeath      = "cell_death"
	TitleCellDeathChart = "cell_death_summary"
)
