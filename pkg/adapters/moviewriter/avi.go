package moviewriter

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"

	"github.com/icza/mjpeg"
	"github.com/user/imageseq/pkg/pipeline"
	"github.com/user/imageseq/pkg/ports"
)

// aviTiming returns the integer frame rate and per-image repeat count that
// reproduce a duration of tick/timeBase seconds per image.
func aviTiming(timeBase, tick int64) (fps int32, repeat int) {
	if tick < 1 {
		tick = 1
	}
	g := gcd(timeBase, tick)
	return int32(timeBase / g), int(tick / g)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

// aviBackend writes Motion JPEG AVI files. AVI has no per-frame timestamps,
// so each image is repeated to hold it for the frame duration.
type aviBackend struct {
	path    string
	aw      mjpeg.AviWriter
	repeat  int
	quality int
	buf     bytes.Buffer
}

func newAVIBackend() *aviBackend {
	return &aviBackend{}
}

func (b *aviBackend) open(path string, settings ports.VideoSettings) error {
	fps, repeat := aviTiming(settings.TimeBase, settings.FrameDuration.Rescale(settings.TimeBase))
	aw, err := mjpeg.New(path, int32(settings.Size.Width), int32(settings.Size.Height), fps)
	if err != nil {
		return err
	}
	b.path = path
	b.aw = aw
	b.repeat = repeat
	b.quality = settings.Quality
	return nil
}

func (b *aviBackend) write(frame *pipeline.Frame) error {
	b.buf.Reset()
	if err := jpeg.Encode(&b.buf, frame.Image(), &jpeg.Options{Quality: b.quality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	data := b.buf.Bytes()
	for i := 0; i < b.repeat; i++ {
		if err := b.aw.AddFrame(data); err != nil {
			return err
		}
	}
	return nil
}

func (b *aviBackend) close() error {
	if b.aw == nil {
		return nil
	}
	err := b.aw.Close()
	b.aw = nil
	return err
}

func (b *aviBackend) abort() {
	if b.aw != nil {
		b.aw.Close()
		b.aw = nil
	}
	if b.path != "" {
		os.Remove(b.path)
	}
}
