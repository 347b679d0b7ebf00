package moviewriter

import (
	"fmt"

	"github.com/user/imageseq/pkg/adapters/logger"
	"github.com/user/imageseq/pkg/pipeline"
	"github.com/user/imageseq/pkg/ports"
)

// Backend names reported in ports.WriterInfo.
const (
	BackendMP4FF  = "mp4ff"
	BackendFFmpeg = "ffmpeg"
	BackendMJPEG  = "mjpeg"
)

// Options configures the factory.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// DisableFallback makes auto codec selection fail instead of falling back
	// to JPEG when H.264 is unavailable.
	DisableFallback bool
	// QueueDepth is the number of frames in flight. Zero uses DefaultQueueDepth.
	QueueDepth int
	// Logger is used for fallback warnings and session logs.
	Logger ports.Logger
}

// Factory creates encoding sessions with automatic codec selection.
//
// Selection for CodecAuto:
//  1. mov/mp4 with even dimensions and ffmpeg available: H.264 via ffmpeg
//  2. otherwise JPEG via mp4ff (mov/mp4) or mjpeg (avi), logged as a fallback
//
// AVI has a fixed frame rate and no per-frame timestamps, so the mjpeg
// backend writes each image tick/gcd(600, tick) times. An AVI file holds
// more frames than there were images whenever that count exceeds one.
type Factory struct {
	opts        Options
	logger      ports.Logger
	ffmpegCheck func() bool
}

// NewFactory creates a movie writer factory.
func NewFactory(opts Options) *Factory {
	if opts.FFmpegPath != "" {
		SetFFmpegPath(opts.FFmpegPath)
	}
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = DefaultQueueDepth
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	return &Factory{
		opts:        opts,
		logger:      log.WithComponent("moviewriter"),
		ffmpegCheck: IsFFmpegAvailable,
	}
}

// NewWriter creates an idle session. The backend is chosen in Begin, when
// the frame size is known.
func (f *Factory) NewWriter(path string, format pipeline.ContainerFormat, codec pipeline.Codec) (ports.MovieWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("moviewriter: empty output path")
	}
	if format == "" {
		format = pipeline.FormatMOV
	}
	if codec == "" {
		codec = pipeline.CodecAuto
	}
	switch format {
	case pipeline.FormatMOV, pipeline.FormatMP4, pipeline.FormatAVI:
	default:
		return nil, fmt.Errorf("%w: container %s", ErrUnsupported, format)
	}
	if format == pipeline.FormatAVI && codec == pipeline.CodecH264 {
		return nil, fmt.Errorf("%w: %s in %s", ErrUnsupported, codec, format)
	}

	requested := ports.WriterInfo{Format: format, Codec: codec, RequestedCodec: codec}
	choose := func(settings ports.VideoSettings) (backend, ports.WriterInfo, error) {
		return f.selectBackend(format, codec, settings)
	}
	return newWriter(path, requested, choose, f.opts.QueueDepth, f.logger), nil
}

func (f *Factory) selectBackend(format pipeline.ContainerFormat, codec pipeline.Codec, settings ports.VideoSettings) (backend, ports.WriterInfo, error) {
	info := ports.WriterInfo{Format: format, RequestedCodec: codec}

	jpegBackend := func(fallback bool) (backend, ports.WriterInfo, error) {
		info.Codec = pipeline.CodecJPEG
		info.FallbackUsed = fallback
		if format == pipeline.FormatAVI {
			info.Backend = BackendMJPEG
			return newAVIBackend(), info, nil
		}
		info.Backend = BackendMP4FF
		return newMP4Backend(format), info, nil
	}

	switch codec {
	case pipeline.CodecJPEG:
		return jpegBackend(false)
	case pipeline.CodecH264:
		info.Codec = pipeline.CodecH264
		info.Backend = BackendFFmpeg
		return newFFmpegBackend(format), info, nil
	}

	if format == pipeline.FormatAVI {
		return jpegBackend(false)
	}
	even := settings.Size.Width%2 == 0 && settings.Size.Height%2 == 0
	if even && f.ffmpegCheck() {
		info.Codec = pipeline.CodecH264
		info.Backend = BackendFFmpeg
		return newFFmpegBackend(format), info, nil
	}
	if f.opts.DisableFallback {
		if !even {
			return nil, info, fmt.Errorf("%w: %s", ErrOddDimensions, settings.Size)
		}
		return nil, info, ErrFFmpegNotFound
	}
	if even {
		f.logger.Warn("H.264 encoder not available, falling back to JPEG")
	} else {
		f.logger.Warn("H.264 needs even dimensions (%s), falling back to JPEG", settings.Size)
	}
	return jpegBackend(true)
}

var _ ports.MovieWriterFactory = (*Factory)(nil)

// BackendFor names the backend that writes codec into format. The codec
// must already be resolved, not CodecAuto.
func BackendFor(format pipeline.ContainerFormat, codec pipeline.Codec) string {
	switch {
	case codec == pipeline.CodecH264:
		return BackendFFmpeg
	case format == pipeline.FormatAVI:
		return BackendMJPEG
	default:
		return BackendMP4FF
	}
}
