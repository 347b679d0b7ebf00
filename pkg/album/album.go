// Package album saves finished movies into a photo library album.
package album

import (
	"context"
	"fmt"

	"github.com/user/imageseq/pkg/adapters/logger"
	"github.com/user/imageseq/pkg/metrics"
	"github.com/user/imageseq/pkg/pipeline"
	"github.com/user/imageseq/pkg/ports"
	"github.com/user/imageseq/pkg/probe"
)

// Result is the outcome of an asynchronous save.
type Result struct {
	Asset ports.Asset
	Err   error
}

// Saver runs the fetch-or-create then add sequence against a library.
type Saver struct {
	library ports.PhotoLibrary
	logger  ports.Logger
	metrics *metrics.Metrics
	inspect func(path string) (probe.Info, error)
}

// Option configures a Saver.
type Option func(*Saver)

// WithLogger sets the logger.
func WithLogger(l ports.Logger) Option {
	return func(s *Saver) { s.logger = l }
}

// WithMetrics records save outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Saver) { s.metrics = m }
}

// NewSaver creates a Saver for library.
func NewSaver(library ports.PhotoLibrary, opts ...Option) *Saver {
	s := &Saver{
		library: library,
		logger:  logger.NewNoop(),
		inspect: probe.Inspect,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("album")
	return s
}

// SaveMovie adds the movie at path to the album titled albumName, creating
// the album if no album has that exact title. Each step completes before the
// next begins; nothing is retried.
func (s *Saver) SaveMovie(ctx context.Context, path, albumName string) (ports.Asset, error) {
	created := false
	asset, err := s.save(ctx, path, albumName, &created)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
		s.logger.Error("Saving %s to album %q failed: %v", path, albumName, err)
	}
	s.metrics.AlbumSaved(outcome, created)
	return asset, err
}

// SaveMovieAsync runs SaveMovie on its own goroutine. The returned channel
// receives exactly one Result.
func (s *Saver) SaveMovieAsync(ctx context.Context, path, albumName string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		asset, err := s.SaveMovie(ctx, path, albumName)
		out <- Result{Asset: asset, Err: err}
	}()
	return out
}

func (s *Saver) save(ctx context.Context, path, albumName string, created *bool) (ports.Asset, error) {
	if err := s.checkFormat(path); err != nil {
		return ports.Asset{}, err
	}
	if err := ctx.Err(); err != nil {
		return ports.Asset{}, pipeline.NewError(pipeline.CodeCancelled, err)
	}

	album, found, err := s.library.FetchAlbum(ctx, albumName)
	if err != nil {
		return ports.Asset{}, fmt.Errorf("fetch album: %w", err)
	}
	if !found {
		s.logger.Info("Creating album %q", albumName)
		album, err = s.library.CreateAlbum(ctx, albumName)
		if err != nil {
			return ports.Asset{}, fmt.Errorf("create album: %w", err)
		}
		*created = true
	}

	if err := ctx.Err(); err != nil {
		return ports.Asset{}, pipeline.NewError(pipeline.CodeCancelled, err)
	}
	asset, err := s.library.AddVideo(ctx, album, path)
	if err != nil {
		return ports.Asset{}, fmt.Errorf("add video: %w", err)
	}
	s.logger.Info("Saved %s to album %q as %s", path, album.Title, asset.ID)
	return asset, nil
}

// checkFormat accepts only QuickTime and MP4 files.
func (s *Saver) checkFormat(path string) error {
	info, err := s.inspect(path)
	if err != nil {
		return pipeline.NewError(pipeline.CodeIncompatibleFormat, err)
	}
	switch info.Container {
	case pipeline.FormatMOV, pipeline.FormatMP4:
		return nil
	default:
		return pipeline.NewError(pipeline.CodeIncompatibleFormat, fmt.Errorf("%s container is not supported by photo albums", info.Container))
	}
}
