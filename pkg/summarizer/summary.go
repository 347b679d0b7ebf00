// Package summarizer provides summary generation for movie creation runs.
package summarizer

import "time"

// Summary contains all data collected during one movie creation run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Source images
	Input InputInfo

	// Requested and resolved settings
	Settings Settings

	// Movie file details, as probed after writing
	Video VideoInfo

	// Optional album save
	Album AlbumInfo

	// Run result
	Outcome Outcome
}

// InputInfo describes the source images.
type InputInfo struct {
	ImageCount   int
	CanvasWidth  int
	CanvasHeight int
}

// Settings contains the movie configuration.
type Settings struct {
	Format          string
	RequestedCodec  string
	Codec           string
	Backend         string
	FallbackUsed    bool
	ScaleMode       string
	Quality         int
	SecondsPerImage float64
	Width           int
	Height          int
}

// VideoInfo contains information about the output movie.
type VideoInfo struct {
	Path       string
	FrameCount int
	Timescale  int64
	Tick       int64 // Frame duration in Timescale units
	DurationMs int
	FileSize   int64
}

// AlbumInfo describes where the movie was saved.
type AlbumInfo struct {
	Name    string
	AssetID string
	Created bool
}

// Outcome is the terminal result of the run.
type Outcome struct {
	Success    bool
	ErrorCode  string
	Error      string
	Suggestion string
	ElapsedMs  int
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithInput sets source image information.
func (b *Builder) WithInput(count, canvasWidth, canvasHeight int) *Builder {
	b.summary.Input = InputInfo{
		ImageCount:   count,
		CanvasWidth:  canvasWidth,
		CanvasHeight: canvasHeight,
	}
	return b
}

// WithSettings sets movie settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithVideo sets movie output information.
func (b *Builder) WithVideo(video VideoInfo) *Builder {
	b.summary.Video = video
	return b
}

// WithAlbum sets album save information.
func (b *Builder) WithAlbum(name, assetID string, created bool) *Builder {
	b.summary.Album = AlbumInfo{Name: name, AssetID: assetID, Created: created}
	return b
}

// WithSuccess marks the run as successful.
func (b *Builder) WithSuccess(elapsed time.Duration) *Builder {
	b.summary.Outcome = Outcome{Success: true, ElapsedMs: int(elapsed.Milliseconds())}
	return b
}

// WithFailure records a failed run.
func (b *Builder) WithFailure(code, message, suggestion string, elapsed time.Duration) *Builder {
	b.summary.Outcome = Outcome{
		ErrorCode:  code,
		Error:      message,
		Suggestion: suggestion,
		ElapsedMs:  int(elapsed.Milliseconds()),
	}
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
