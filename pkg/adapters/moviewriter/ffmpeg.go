package moviewriter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"github.com/user/imageseq/pkg/pipeline"
	"github.com/user/imageseq/pkg/ports"
)

var (
	ffmpegPathMu     sync.RWMutex
	customFFmpegPath string
)

// SetFFmpegPath overrides ffmpeg discovery. An empty path restores the default search.
func SetFFmpegPath(path string) {
	ffmpegPathMu.Lock()
	defer ffmpegPathMu.Unlock()
	customFFmpegPath = path
}

// IsFFmpegAvailable checks if ffmpeg is available on the system.
func IsFFmpegAvailable() bool {
	_, err := FindFFmpeg()
	return err == nil
}

// FindFFmpeg searches for ffmpeg.
// Priority: 1) SetFFmpegPath, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg() (string, error) {
	ffmpegPathMu.RLock()
	custom := customFFmpegPath
	ffmpegPathMu.RUnlock()

	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// crfForQuality maps quality 1-100 onto x264 CRF 50-18.
func crfForQuality(quality int) int {
	if quality <= 0 || quality > 100 {
		quality = pipeline.DefaultQuality
	}
	return 18 + (100-quality)*32/99
}

// ffmpegBackend pipes raw RGBA frames into an ffmpeg/libx264 process that
// writes the container directly.
type ffmpegBackend struct {
	format pipeline.ContainerFormat

	path   string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	frames int
}

func newFFmpegBackend(format pipeline.ContainerFormat) *ffmpegBackend {
	return &ffmpegBackend{format: format}
}

// ffmpegArgs builds the encoder command line. Input frames arrive at
// TimeBase/tick frames per second and the track keeps TimeBase as timescale.
func ffmpegArgs(format pipeline.ContainerFormat, settings ports.VideoSettings, path string) []string {
	tick := settings.FrameDuration.Rescale(settings.TimeBase)
	if tick < 1 {
		tick = 1
	}
	muxer := "mov"
	if format == pipeline.FormatMP4 {
		muxer = "mp4"
	}
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", settings.Size.Width, settings.Size.Height),
		"-framerate", fmt.Sprintf("%d/%d", settings.TimeBase, tick),
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-crf", fmt.Sprintf("%d", crfForQuality(settings.Quality)),
		"-video_track_timescale", fmt.Sprintf("%d", settings.TimeBase),
		"-movflags", "+faststart",
		"-f", muxer,
		path,
	}
}

func (b *ffmpegBackend) open(path string, settings ports.VideoSettings) error {
	if settings.Size.Width%2 != 0 || settings.Size.Height%2 != 0 {
		return fmt.Errorf("%w: %s", ErrOddDimensions, settings.Size)
	}
	ffmpegPath, err := FindFFmpeg()
	if err != nil {
		return err
	}

	b.path = path
	b.cmd = exec.Command(ffmpegPath, ffmpegArgs(b.format, settings, path)...)
	b.cmd.Stderr = &b.stderr

	stdin, err := b.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	b.stdin = stdin

	if err := b.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return nil
}

func (b *ffmpegBackend) write(frame *pipeline.Frame) error {
	if b.stdin == nil {
		return ErrNotWriting
	}
	if _, err := b.stdin.Write(frame.Image().Pix); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	b.frames++
	return nil
}

func (b *ffmpegBackend) close() error {
	if b.stdin == nil {
		return ErrNotWriting
	}
	b.stdin.Close()
	b.stdin = nil

	if err := b.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encoding failed: %w\nstderr: %s", err, b.stderr.String())
	}
	b.cmd = nil
	return nil
}

func (b *ffmpegBackend) abort() {
	if b.stdin != nil {
		b.stdin.Close()
		b.stdin = nil
	}
	if b.cmd != nil && b.cmd.Process != nil {
		b.cmd.Process.Kill()
		b.cmd.Wait()
		b.cmd = nil
	}
	if b.path != "" {
		os.Remove(b.path)
	}
}
