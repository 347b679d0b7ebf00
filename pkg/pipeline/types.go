// Package pipeline defines the shared types of the image sequencing pipeline.
package pipeline

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// Common Types
// =============================================================================

// Size represents width and height in pixels.
type Size struct {
	Width  int
	Height int
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// String returns the size as WIDTHxHEIGHT.
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// ContainerFormat identifies the output container family.
type ContainerFormat string

const (
	// FormatMOV is a QuickTime movie. This is the default.
	FormatMOV ContainerFormat = "mov"
	// FormatMP4 is an ISO base media file.
	FormatMP4 ContainerFormat = "mp4"
	// FormatAVI is a RIFF AVI file (Motion JPEG only).
	FormatAVI ContainerFormat = "avi"
)

// Extension returns the file extension for the format, including the dot.
func (f ContainerFormat) Extension() string {
	switch f {
	case FormatMP4:
		return ".mp4"
	case FormatAVI:
		return ".avi"
	default:
		return ".mov"
	}
}

// ParseContainerFormat parses a format name. Unknown names are an error.
func ParseContainerFormat(s string) (ContainerFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "mov", "qt", "quicktime":
		return FormatMOV, nil
	case "mp4", "m4v":
		return FormatMP4, nil
	case "avi":
		return FormatAVI, nil
	default:
		return "", fmt.Errorf("unknown container format: %s", s)
	}
}

// Codec identifies the video compression scheme.
type Codec string

const (
	// CodecAuto selects H.264 when available and falls back to JPEG.
	CodecAuto Codec = "auto"
	// CodecH264 is H.264/AVC.
	CodecH264 Codec = "h264"
	// CodecJPEG is Motion JPEG.
	CodecJPEG Codec = "jpeg"
)

// ParseCodec parses a codec name.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return CodecAuto, nil
	case "h264", "avc", "h.264":
		return CodecH264, nil
	case "jpeg", "mjpeg", "jpg":
		return CodecJPEG, nil
	default:
		return "", fmt.Errorf("unknown codec: %s", s)
	}
}

// ScaleMode controls how a source image is placed into the output frame.
type ScaleMode string

const (
	// ScaleFit preserves the aspect ratio and letterboxes. This is the default.
	ScaleFit ScaleMode = "fit"
	// ScaleFill preserves the aspect ratio and crops to cover the frame.
	ScaleFill ScaleMode = "fill"
	// ScaleStretch scales each axis independently to the frame.
	ScaleStretch ScaleMode = "stretch"
	// ScaleCanvas centres each source on the common canvas (largest source
	// width and height) and fits that canvas into the frame.
	ScaleCanvas ScaleMode = "canvas"
)

// ParseScaleMode parses a scale mode name.
func ParseScaleMode(s string) (ScaleMode, error) {
	switch ScaleMode(strings.ToLower(s)) {
	case "", ScaleFit:
		return ScaleFit, nil
	case ScaleFill:
		return ScaleFill, nil
	case ScaleStretch:
		return ScaleStretch, nil
	case ScaleCanvas:
		return ScaleCanvas, nil
	default:
		return "", fmt.Errorf("unknown scale mode: %s", s)
	}
}

// =============================================================================
// Sequencer Options
// =============================================================================

// DefaultSecondsPerImage is the display duration applied when none is given.
const DefaultSecondsPerImage = 1.0

// DefaultQuality is the default encoder quality (1-100).
const DefaultQuality = 85

// defaultFileName is the base name of the default output path.
const defaultFileName = "imageseq"

// Options parameterizes one movie creation.
type Options struct {
	OutputSize      Size            // Encoded frame dimensions
	SecondsPerImage float64         // Display duration per source image
	LocalPath       string          // Destination path; empty uses DefaultPath
	ContainerFormat ContainerFormat // Output container (default: mov)
	Codec           Codec           // Output codec (default: auto)
	ScaleMode       ScaleMode       // Placement policy (default: fit)
	Background      color.Color     // Letterbox colour (default: black)
	Quality         int             // 1-100, higher is better (default: 85)
}

// DefaultOptions returns Options for the given output size with default values.
func DefaultOptions(size Size) Options {
	return Options{
		OutputSize:      size,
		SecondsPerImage: DefaultSecondsPerImage,
		ContainerFormat: FormatMOV,
		Codec:           CodecAuto,
		ScaleMode:       ScaleFit,
		Background:      color.Black,
		Quality:         DefaultQuality,
	}
}

// WithDefaults returns a copy with zero-valued optional fields filled in.
// OutputSize and SecondsPerImage are left for Validate to reject.
func (o Options) WithDefaults() Options {
	if o.ContainerFormat == "" {
		o.ContainerFormat = FormatMOV
	}
	if o.Codec == "" {
		o.Codec = CodecAuto
	}
	if o.ScaleMode == "" {
		o.ScaleMode = ScaleFit
	}
	if o.Background == nil {
		o.Background = color.Black
	}
	if o.Quality <= 0 {
		o.Quality = DefaultQuality
	}
	if o.Quality > 100 {
		o.Quality = 100
	}
	return o
}

// Validate checks the invariants on output size and timing.
func (o Options) Validate() error {
	if !o.OutputSize.Valid() {
		return NewError(CodeInvalidOptions, fmt.Errorf("output size must be positive, got %s", o.OutputSize))
	}
	if !(o.SecondsPerImage > 0) {
		return NewError(CodeInvalidOptions, fmt.Errorf("seconds per image must be positive, got %v", o.SecondsPerImage))
	}
	if float64(TimeBase)/o.SecondsPerImage > float64(MaxTickDuration) {
		return NewError(CodeInvalidOptions, fmt.Errorf("seconds per image %v gives a frame duration above %d ticks", o.SecondsPerImage, MaxTickDuration))
	}
	if o.ContainerFormat == FormatAVI && o.Codec == CodecH264 {
		return NewError(CodeInvalidOptions, fmt.Errorf("avi output supports jpeg only"))
	}
	return nil
}

// DefaultPath returns the destination used when LocalPath is empty.
func DefaultPath(format ContainerFormat) string {
	return filepath.Join(os.TempDir(), defaultFileName+format.Extension())
}

// ResolvePath returns the absolute destination path for the options.
func (o Options) ResolvePath() (string, error) {
	path := o.LocalPath
	if path == "" {
		path = DefaultPath(o.ContainerFormat)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", NewError(CodeLocalPath, err)
	}
	return abs, nil
}
