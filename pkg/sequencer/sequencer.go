// Package sequencer turns an ordered list of images into a movie file.
package sequencer

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/user/imageseq/pkg/adapters/logger"
	"github.com/user/imageseq/pkg/compositor"
	"github.com/user/imageseq/pkg/metrics"
	"github.com/user/imageseq/pkg/pipeline"
	"github.com/user/imageseq/pkg/ports"
)

// Callbacks receive the events of one CreateLocalMovie call.
//
// OnProgress fires once per appended frame with i/n, strictly before the
// terminal callback. Exactly one of OnSuccess or OnError fires, once.
type Callbacks struct {
	OnProgress func(progress float64)
	OnSuccess  func(path string)
	OnError    func(err error)
}

// Sequencer owns one encoding session per call.
type Sequencer struct {
	factory ports.MovieWriterFactory
	fs      ports.FileSystem
	builder ports.FrameBuilder
	logger  ports.Logger
	metrics *metrics.Metrics
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithFrameBuilder replaces the per-run compositor built from the options.
func WithFrameBuilder(b ports.FrameBuilder) Option {
	return func(s *Sequencer) { s.builder = b }
}

// WithLogger sets the logger.
func WithLogger(l ports.Logger) Option {
	return func(s *Sequencer) { s.logger = l }
}

// WithMetrics records run metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sequencer) { s.metrics = m }
}

// New creates a Sequencer writing through factory.
func New(factory ports.MovieWriterFactory, fs ports.FileSystem, opts ...Option) *Sequencer {
	s := &Sequencer{
		factory: factory,
		fs:      fs,
		logger:  logger.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("sequencer")
	return s
}

// CreateLocalMovie encodes images into a movie at the resolved options path.
//
// The frame loop runs on the calling goroutine and blocks on the writer's
// readiness signal. The call returns once the writer is finishing; the
// terminal callback may then fire on another goroutine. Errors are only
// reported through cb.OnError.
func (s *Sequencer) CreateLocalMovie(ctx context.Context, images []image.Image, options pipeline.Options, cb Callbacks) {
	start := time.Now()
	s.metrics.RunStarted()

	onProgress := cb.OnProgress
	if onProgress == nil {
		onProgress = func(float64) {}
	}

	var once sync.Once
	report := func(path string, err error) {
		once.Do(func() {
			if err != nil {
				outcome := metrics.OutcomeFailure
				if pipeline.CodeOf(err) == pipeline.CodeCancelled {
					outcome = metrics.OutcomeCancelled
				}
				s.metrics.RunFinished(outcome, pipeline.CodeOf(err).String(), time.Since(start))
				s.logger.Error("Movie creation failed: %v", err)
				if cb.OnError != nil {
					cb.OnError(err)
				}
				return
			}
			s.metrics.RunFinished(metrics.OutcomeSuccess, "", time.Since(start))
			s.logger.Info("Movie written to %s", path)
			if cb.OnSuccess != nil {
				cb.OnSuccess(path)
			}
		})
	}

	options = options.WithDefaults()
	if err := options.Validate(); err != nil {
		report("", err)
		return
	}
	if len(images) == 0 {
		report("", pipeline.NewError(pipeline.CodeNoImages, nil))
		return
	}

	path, err := options.ResolvePath()
	if err != nil {
		report("", err)
		return
	}
	isDir, err := s.fs.IsDir(path)
	if err == nil && isDir {
		err = fmt.Errorf("%s is a directory", path)
	}
	if err != nil {
		report("", pipeline.NewError(pipeline.CodeLocalPath, err))
		return
	}
	if err := s.fs.Remove(path); err != nil {
		s.logger.Debug("No previous movie removed at %s: %v", path, err)
	}

	writer, err := s.factory.NewWriter(path, options.ContainerFormat, options.Codec)
	if err != nil {
		report("", pipeline.NewError(pipeline.CodeSessionCreation, err))
		return
	}

	canvas := compositor.CanvasSize(images)
	tick := pipeline.TickDuration(options.SecondsPerImage)
	if float64(pipeline.TimeBase)/options.SecondsPerImage < 0.5 {
		s.logger.Warn("%.1f seconds per image is below tick precision, using 1/%d s", options.SecondsPerImage, pipeline.TimeBase)
	}

	settings := ports.VideoSettings{
		Size:          options.OutputSize,
		TimeBase:      pipeline.TimeBase,
		FrameDuration: pipeline.NewTime(tick),
		Quality:       options.Quality,
	}
	if err := writer.Begin(settings); err != nil {
		report("", pipeline.NewError(pipeline.CodeSessionCreation, err))
		return
	}
	if info := writer.Info(); info.Backend != "" {
		s.logger.Debug("Writing %s with %s", info.Codec, info.Backend)
	}

	builder := s.builder
	if builder == nil {
		builder = compositor.NewFromOptions(options)
	}

	n := len(images)
	s.logger.Info("Creating %s from %d images at %s, %d/%d s per image", path, n, options.OutputSize, tick, pipeline.TimeBase)

	for i := 0; ; {
		waitStart := time.Now()
		if err := writer.WaitReady(ctx); err != nil {
			writer.Cancel()
			report("", waitError(ctx, writer, err))
			return
		}
		s.metrics.WaitedForReady(time.Since(waitStart))

		if i == n {
			break
		}

		buildStart := time.Now()
		frame, err := builder.BuildFrame(images[i], canvas, options.OutputSize)
		if err != nil {
			writer.Cancel()
			report("", err)
			return
		}
		frame.PTS = pipeline.PresentationTime(i, tick)

		if err := writer.Append(frame); err != nil {
			writer.Cancel()
			report("", pipeline.NewError(pipeline.CodeFrameAppend, err))
			return
		}
		s.metrics.FrameAppended(time.Since(buildStart))
		s.logger.Debug("Frame %d/%d appended at %s", i+1, n, frame.PTS)

		i++
		onProgress(float64(i) / float64(n))
	}

	writer.Finish(func() {
		switch status := writer.Status(); status {
		case ports.StatusCompleted:
			report(path, nil)
		case ports.StatusFailed:
			if werr := writer.Err(); werr != nil {
				report("", pipeline.NewError(pipeline.CodeEncoderFinalize, werr))
				return
			}
			report("", pipeline.NewError(pipeline.CodeUnknown, nil))
		default:
			report("", pipeline.NewError(pipeline.CodeUnknown, fmt.Errorf("writer ended in state %s", status)))
		}
	})
}

// Run is the blocking form of CreateLocalMovie. It returns the movie path
// once the writer has finished.
func (s *Sequencer) Run(ctx context.Context, images []image.Image, options pipeline.Options, onProgress func(float64)) (string, error) {
	type result struct {
		path string
		err  error
	}
	done := make(chan result, 1)

	s.CreateLocalMovie(ctx, images, options, Callbacks{
		OnProgress: onProgress,
		OnSuccess:  func(path string) { done <- result{path: path} },
		OnError:    func(err error) { done <- result{err: err} },
	})

	r := <-done
	return r.path, r.err
}

// waitError classifies a readiness failure.
func waitError(ctx context.Context, writer ports.MovieWriter, err error) error {
	if ctx.Err() != nil {
		return pipeline.NewError(pipeline.CodeCancelled, err)
	}
	if writer.Status() == ports.StatusFailed {
		if werr := writer.Err(); werr != nil {
			err = werr
		}
		return pipeline.NewError(pipeline.CodeEncoderFinalize, err)
	}
	return pipeline.NewError(pipeline.CodeFrameAppend, err)
}
