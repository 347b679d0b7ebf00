package moviewriter

import (
	"bufio"
	"bytes"
	"fmt"
	"image/jpeg"
	"math"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/user/imageseq/pkg/pipeline"
	"github.com/user/imageseq/pkg/ports"
)

// JPEGSampleEntry is the sample entry type of Motion JPEG tracks.
const JPEGSampleEntry = "jpeg"

// mp4Backend streams a fragmented MP4 or QuickTime file with one JPEG
// sample per fragment. Timestamps are kept in the session time base.
type mp4Backend struct {
	format pipeline.ContainerFormat

	file     *os.File
	out      *bufio.Writer
	settings ports.VideoSettings
	tick     uint32
	seq      uint32
	jpegBuf  bytes.Buffer
}

func newMP4Backend(format pipeline.ContainerFormat) *mp4Backend {
	return &mp4Backend{format: format}
}

func (b *mp4Backend) ftyp() *mp4.FtypBox {
	if b.format == pipeline.FormatMOV {
		return mp4.NewFtyp("qt  ", 0x200, []string{"qt  "})
	}
	return mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "mp41"})
}

func (b *mp4Backend) open(path string, settings ports.VideoSettings) error {
	if settings.Size.Width > 0xffff || settings.Size.Height > 0xffff {
		return fmt.Errorf("frame size %s exceeds 16-bit sample entry limits", settings.Size)
	}

	tick := settings.FrameDuration.Rescale(settings.TimeBase)
	if tick < 1 {
		tick = 1
	}
	if tick > math.MaxUint32 {
		return fmt.Errorf("frame duration of %d ticks exceeds 32-bit sample duration", tick)
	}
	b.tick = uint32(tick)
	b.settings = settings

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(uint32(settings.TimeBase), "video", "und")
	trak := init.Moov.Trak

	width, height := uint16(settings.Size.Width), uint16(settings.Size.Height)
	entry := mp4.CreateVisualSampleEntryBox(JPEGSampleEntry, width, height, nil)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(entry)
	trak.Tkhd.Width = mp4.Fixed32(settings.Size.Width << 16)
	trak.Tkhd.Height = mp4.Fixed32(settings.Size.Height << 16)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	b.file = f
	b.out = bufio.NewWriter(f)

	if err := b.ftyp().Encode(b.out); err != nil {
		b.abortFile()
		return fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(b.out); err != nil {
		b.abortFile()
		return fmt.Errorf("encode moov: %w", err)
	}
	return nil
}

func (b *mp4Backend) write(frame *pipeline.Frame) error {
	b.jpegBuf.Reset()
	if err := jpeg.Encode(&b.jpegBuf, frame.Image(), &jpeg.Options{Quality: b.settings.Quality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	data := b.jpegBuf.Bytes()

	b.seq++
	frag, err := mp4.CreateFragment(b.seq, 1)
	if err != nil {
		return fmt.Errorf("create fragment: %w", err)
	}
	frag.AddFullSample(mp4.FullSample{
		Sample: mp4.Sample{
			Flags: mp4.SyncSampleFlags,
			Size:  uint32(len(data)),
			Dur:   b.tick,
		},
		DecodeTime: uint64(frame.PTS.Rescale(b.settings.TimeBase)),
		Data:       data,
	})

	if err := frag.Encode(b.out); err != nil {
		return fmt.Errorf("encode fragment: %w", err)
	}
	return nil
}

func (b *mp4Backend) close() error {
	if b.file == nil {
		return nil
	}
	if err := b.out.Flush(); err != nil {
		return err
	}
	err := b.file.Close()
	b.file = nil
	return err
}

func (b *mp4Backend) abort() {
	b.abortFile()
}

func (b *mp4Backend) abortFile() {
	if b.file == nil {
		return
	}
	name := b.file.Name()
	b.file.Close()
	b.file = nil
	os.Remove(name)
}
