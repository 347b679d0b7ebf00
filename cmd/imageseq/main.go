// Package main provides the CLI entry point for imageseq.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/user/imageseq/pkg/adapters/dirlibrary"
	"github.com/user/imageseq/pkg/adapters/imageloader"
	"github.com/user/imageseq/pkg/adapters/logger"
	"github.com/user/imageseq/pkg/adapters/moviewriter"
	"github.com/user/imageseq/pkg/adapters/osfilesystem"
	"github.com/user/imageseq/pkg/album"
	"github.com/user/imageseq/pkg/compositor"
	"github.com/user/imageseq/pkg/config"
	"github.com/user/imageseq/pkg/metrics"
	"github.com/user/imageseq/pkg/pipeline"
	"github.com/user/imageseq/pkg/ports"
	"github.com/user/imageseq/pkg/probe"
	"github.com/user/imageseq/pkg/sequencer"
	"github.com/user/imageseq/pkg/summarizer"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "imageseq",
		Usage:   l10n.T("Turn still images into a movie"),
		Version: version,
		Commands: []*cli.Command{
			createCommand(),
			saveCommand(),
			probeCommand(),
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T("Logging")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T("Logging")},
	}
}

func albumFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "album", Aliases: []string{"a"}, Usage: l10n.T("Save the movie into this album"), Category: l10n.T("Album")},
		&cli.StringFlag{Name: "library", Usage: l10n.T("Photo library directory (default: ./library)"), Category: l10n.T("Album")},
	}
}

func createCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file"), Category: l10n.T("Output")},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Output movie path (default: temporary directory)"), Category: l10n.T("Output")},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: l10n.T("Container format (mov, mp4, avi; avi repeats frames to hold each image)"), Category: l10n.T("Output")},
		&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: l10n.T("Output video width (default: 720)"), Category: l10n.T("Video and Quality")},
		&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: l10n.T("Output video height (default: 720)"), Category: l10n.T("Video and Quality")},
		&cli.Float64Flag{Name: "seconds", Aliases: []string{"s"}, Usage: l10n.T("Seconds each image is shown (default: 1)"), Category: l10n.T("Video and Quality")},
		&cli.StringFlag{Name: "codec", Usage: l10n.T("Video codec (auto, h264, jpeg)"), Category: l10n.T("Video and Quality")},
		&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Usage: l10n.T("Encoder quality (1-100, higher is better)"), Category: l10n.T("Video and Quality")},
		&cli.StringFlag{Name: "scale", Usage: l10n.T("Scale mode (fit, fill, stretch, canvas)"), Category: l10n.T("Layout and Style")},
		&cli.StringFlag{Name: "background", Usage: l10n.T("Background color (hex, e.g., #000000)"), Category: l10n.T("Layout and Style")},
		&cli.StringFlag{Name: "ffmpeg-path", Usage: l10n.T("Path to ffmpeg executable"), Category: l10n.T("Encoder")},
		&cli.BoolFlag{Name: "no-fallback", Usage: l10n.T("Fail instead of falling back to JPEG when H.264 is unavailable"), Category: l10n.T("Encoder")},
		&cli.StringFlag{Name: "summary", Usage: l10n.T("Output execution summary to file (Markdown format)"), Category: l10n.T("Reporting")},
		&cli.StringFlag{Name: "metrics", Usage: l10n.T("Write Prometheus metrics to a textfile"), Category: l10n.T("Reporting")},
	}
	flags = append(flags, albumFlags()...)
	flags = append(flags, loggingFlags()...)

	return &cli.Command{
		Name:      "create",
		Usage:     l10n.T("Create a movie from images"),
		ArgsUsage: "<image or directory>...",
		Flags:     flags,
		Action:    runCreate,
	}
}

func saveCommand() *cli.Command {
	flags := append(albumFlags(), loggingFlags()...)
	return &cli.Command{
		Name:      "save",
		Usage:     l10n.T("Save an existing movie into an album"),
		ArgsUsage: "<movie>",
		Flags:     flags,
		Action:    runSave,
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Show the video track of a movie"),
		ArgsUsage: "<movie>",
		Action:    runProbe,
	}
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	level := cfg.LogLevel
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	return logger.NewConsole(ports.ParseLogLevel(level))
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// loadConfig reads --config when given and applies flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}

	if c.IsSet("output") {
		cfg.OutputPath = c.String("output")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("seconds") {
		cfg.SecondsPerImage = c.Float64("seconds")
	}
	if c.IsSet("codec") {
		cfg.Codec = c.String("codec")
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	if c.IsSet("scale") {
		cfg.ScaleMode = c.String("scale")
	}
	if c.IsSet("background") {
		cfg.Background = c.String("background")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("no-fallback") {
		cfg.DisableFallback = c.Bool("no-fallback")
	}
	if c.IsSet("album") {
		cfg.Album = c.String("album")
	}
	if c.IsSet("library") {
		cfg.LibraryDir = c.String("library")
	}
	if c.IsSet("summary") {
		cfg.SummaryFile = c.String("summary")
	}
	if c.IsSet("metrics") {
		cfg.MetricsFile = c.String("metrics")
	}
	return cfg, nil
}

func runCreate(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit(l10n.T("At least one image argument is required"), 2)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)
	opts, err := cfg.ToOptions()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	fs := osfilesystem.New()
	m := metrics.New()
	start := time.Now()

	paths, err := imageloader.Expand(c.Args().Slice())
	if err != nil {
		return err
	}
	images, err := imageloader.New(fs, log).Load(paths)
	if err != nil {
		return err
	}

	factory := moviewriter.NewFactory(cfg.ToWriterOptions(log))
	seq := sequencer.New(factory, fs, sequencer.WithLogger(log), sequencer.WithMetrics(m))

	canvas := compositor.CanvasSize(images)
	builder := summarizer.NewBuilder().
		WithInput(len(images), canvas.Width, canvas.Height).
		WithSettings(summarizer.Settings{
			Format:          string(opts.ContainerFormat),
			RequestedCodec:  string(opts.Codec),
			ScaleMode:       string(opts.ScaleMode),
			Quality:         opts.WithDefaults().Quality,
			SecondsPerImage: opts.SecondsPerImage,
			Width:           opts.OutputSize.Width,
			Height:          opts.OutputSize.Height,
		})

	progress := newProgressPrinter(c.Bool("quiet"))
	path, runErr := seq.Run(ctx, images, opts, progress.update)
	progress.done()

	if runErr == nil {
		fmt.Println(path)
		describeMovie(builder, fs, path, opts)
		if cfg.Album != "" {
			runErr = saveToAlbum(ctx, log, m, fs, cfg, path, builder)
		}
	}

	if runErr != nil {
		reportError(log, runErr)
		builder.WithFailure(pipeline.CodeOf(runErr).String(), runErr.Error(), recoveryOf(runErr), time.Since(start))
	} else {
		builder.WithSuccess(time.Since(start))
	}

	if cfg.SummaryFile != "" {
		w := summarizer.NewWriter(summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		), fs)
		if err := w.Write(cfg.SummaryFile, builder.Build()); err != nil {
			log.Warn("Failed to write summary: %s", err)
		} else {
			log.Info("Summary saved to %s", cfg.SummaryFile)
		}
	}
	if cfg.MetricsFile != "" {
		if err := m.WriteToFile(cfg.MetricsFile); err != nil {
			log.Warn("Failed to write metrics: %s", err)
		}
	}

	if runErr != nil {
		return cli.Exit("", 1)
	}
	return nil
}

// describeMovie fills the video section of the summary from the written file.
func describeMovie(b *summarizer.Builder, fs ports.FileSystem, path string, opts pipeline.Options) {
	video := summarizer.VideoInfo{Path: path}
	if size, err := fs.Size(path); err == nil {
		video.FileSize = size
	}
	info, err := probe.Inspect(path)
	if err == nil {
		d := info.Duration()
		video.FrameCount = info.FrameCount()
		video.Timescale = d.Timescale
		video.DurationMs = int(d.Seconds() * 1000)
		if len(info.Samples) > 0 {
			video.Tick = int64(info.Samples[0].Dur)
		}
	}
	b.WithVideo(video)

	s := b.Build().Settings
	if err == nil {
		s.Codec = info.Codec
		s.Backend = moviewriter.BackendFor(info.Container, pipeline.Codec(info.Codec))
		s.FallbackUsed = opts.Codec == pipeline.CodecAuto && info.Container != pipeline.FormatAVI && info.Codec == probe.CodecJPEG
	}
	b.WithSettings(s)
}

func saveToAlbum(ctx context.Context, log ports.Logger, m *metrics.Metrics, fs ports.FileSystem, cfg config.Config, path string, b *summarizer.Builder) error {
	lib := dirlibrary.New(cfg.LibraryDir, fs)
	_, existed, err := lib.FetchAlbum(ctx, cfg.Album)
	if err != nil {
		return err
	}
	saver := album.NewSaver(lib, album.WithLogger(log), album.WithMetrics(m))
	asset, err := saver.SaveMovie(ctx, path, cfg.Album)
	if err != nil {
		return err
	}
	b.WithAlbum(cfg.Album, asset.ID, !existed)
	return nil
}

func runSave(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(l10n.T("Exactly one movie argument is required"), 2)
	}
	cfg := config.Defaults()
	if c.IsSet("library") {
		cfg.LibraryDir = c.String("library")
	}
	name := c.String("album")
	if name == "" {
		return cli.Exit(l10n.T("--album is required"), 2)
	}
	log := newLogger(c, cfg)

	ctx, cancel := signalContext(log)
	defer cancel()

	saver := album.NewSaver(dirlibrary.New(cfg.LibraryDir, osfilesystem.New()), album.WithLogger(log))
	res := <-saver.SaveMovieAsync(ctx, c.Args().First(), name)
	if res.Err != nil {
		reportError(log, res.Err)
		return cli.Exit("", 1)
	}
	fmt.Println(res.Asset.Path)
	return nil
}

func runProbe(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(l10n.T("Exactly one movie argument is required"), 2)
	}
	info, err := probe.Inspect(c.Args().First())
	if err != nil {
		return err
	}

	d := info.Duration()
	fmt.Printf("%s: %s\n", l10n.T("Container"), info.Container)
	fmt.Printf("%s: %s (%s)\n", l10n.T("Codec"), info.Codec, info.SampleType)
	fmt.Printf("%s: %dx%d\n", l10n.T("Size"), info.Width, info.Height)
	fmt.Printf("%s: %d\n", l10n.T("Timescale"), info.Timescale)
	fmt.Printf("%s: %d\n", l10n.T("Frames"), info.FrameCount())
	fmt.Printf("%s: %.3f s\n", l10n.T("Duration"), d.Seconds())
	for i, ts := range info.Timestamps() {
		fmt.Printf("  #%d %s\n", i, ts)
	}
	return nil
}

// reportError logs the localized reason and suggestion of a pipeline error.
// The failing component has already logged the error itself.
func reportError(log ports.Logger, err error) {
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		log.Error("%s", err)
		return
	}
	log.Error("%s", perr.FailureReason())
	log.Info("%s", perr.RecoverySuggestion())
}

func recoveryOf(err error) string {
	var perr *pipeline.Error
	if errors.As(err, &perr) {
		return perr.RecoverySuggestion()
	}
	return ""
}

// progressPrinter draws a percentage on stderr when it is a terminal.
type progressPrinter struct {
	enabled bool
	shown   bool
}

func newProgressPrinter(quiet bool) *progressPrinter {
	fd := os.Stderr.Fd()
	return &progressPrinter{enabled: !quiet && (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))}
}

func (p *progressPrinter) update(progress float64) {
	if !p.enabled {
		return
	}
	p.shown = true
	fmt.Fprintf(os.Stderr, "\r%3.0f%%", progress*100)
}

func (p *progressPrinter) done() {
	if p.shown {
		fmt.Fprintln(os.Stderr)
	}
}
