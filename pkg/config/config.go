// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"image/color"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/user/imageseq/pkg/adapters/moviewriter"
	"github.com/user/imageseq/pkg/pipeline"
	"github.com/user/imageseq/pkg/ports"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for imageseq.
type Config struct {
	// Output
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	SecondsPerImage float64 `yaml:"seconds_per_image"`
	OutputPath      string  `yaml:"output"`
	Format          string  `yaml:"format"`
	Codec           string  `yaml:"codec"`
	Quality         int     `yaml:"quality"`

	// Composition
	ScaleMode  string `yaml:"scale_mode"`
	Background string `yaml:"background"`

	// Encoder
	FFmpegPath      string `yaml:"ffmpeg_path"`
	DisableFallback bool   `yaml:"disable_fallback"`
	QueueDepth      int    `yaml:"queue_depth"`

	// Album
	Album      string `yaml:"album"`
	LibraryDir string `yaml:"library_dir"`

	// Reporting
	LogLevel    string `yaml:"log_level"`
	MetricsFile string `yaml:"metrics_file"`
	SummaryFile string `yaml:"summary_file"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Width:           720,
		Height:          720,
		SecondsPerImage: pipeline.DefaultSecondsPerImage,
		Format:          string(pipeline.FormatMOV),
		Codec:           string(pipeline.CodecAuto),
		Quality:         pipeline.DefaultQuality,

		ScaleMode:  string(pipeline.ScaleFit),
		Background: "#000000",

		QueueDepth: moviewriter.DefaultQueueDepth,

		LibraryDir: "./library",
		LogLevel:   "info",
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// ParseColor parses a hex color such as "#1a1a2e" or "#fff".
func ParseColor(hex string) (color.Color, error) {
	if hex == "" {
		return color.Black, nil
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}
	if len(hex) != 4 && len(hex) != 7 {
		return nil, fmt.Errorf("invalid color %q", hex)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// ToOptions converts Config to pipeline.Options.
func (c Config) ToOptions() (pipeline.Options, error) {
	format, err := pipeline.ParseContainerFormat(c.Format)
	if err != nil {
		return pipeline.Options{}, err
	}
	codec, err := pipeline.ParseCodec(c.Codec)
	if err != nil {
		return pipeline.Options{}, err
	}
	mode, err := pipeline.ParseScaleMode(c.ScaleMode)
	if err != nil {
		return pipeline.Options{}, err
	}
	bg, err := ParseColor(c.Background)
	if err != nil {
		return pipeline.Options{}, err
	}

	return pipeline.Options{
		OutputSize:      pipeline.Size{Width: c.Width, Height: c.Height},
		SecondsPerImage: c.SecondsPerImage,
		LocalPath:       c.OutputPath,
		ContainerFormat: format,
		Codec:           codec,
		ScaleMode:       mode,
		Background:      bg,
		Quality:         c.Quality,
	}, nil
}

// ToWriterOptions converts Config to moviewriter.Options.
func (c Config) ToWriterOptions(logger ports.Logger) moviewriter.Options {
	return moviewriter.Options{
		FFmpegPath:      c.FFmpegPath,
		DisableFallback: c.DisableFallback,
		QueueDepth:      c.QueueDepth,
		Logger:          logger,
	}
}
