// Package probe inspects movie files written by the sequencer.
package probe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/user/imageseq/pkg/pipeline"
)

// ErrUnrecognized is returned for files that are neither ISO BMFF nor AVI.
var ErrUnrecognized = errors.New("probe: unrecognized container")

// ErrNoVideoTrack is returned when a container holds no video track.
var ErrNoVideoTrack = errors.New("probe: no video track found")

// Codec names as reported in Info.Codec.
const (
	CodecH264    = "h264"
	CodecAV1     = "av1"
	CodecHEVC    = "hevc"
	CodecJPEG    = "jpeg"
	CodecUnknown = "unknown"
)

// Sample is the timing of one video sample in track timescale units.
type Sample struct {
	DecodeTime uint64
	Dur        uint32
}

// Info describes the video track of a movie file.
type Info struct {
	Container  pipeline.ContainerFormat
	Codec      string
	SampleType string // Sample entry or stream handler fourcc
	Width      int
	Height     int
	Timescale  uint32
	Fragmented bool
	Samples    []Sample
}

// FrameCount returns the number of video samples.
func (i Info) FrameCount() int {
	return len(i.Samples)
}

// Duration returns the track duration.
func (i Info) Duration() pipeline.Time {
	if len(i.Samples) == 0 {
		return pipeline.Time{Timescale: int64(i.Timescale)}
	}
	last := i.Samples[len(i.Samples)-1]
	return pipeline.Time{Value: int64(last.DecodeTime) + int64(last.Dur), Timescale: int64(i.Timescale)}
}

// Timestamps returns each sample's decode time as a rational timestamp.
func (i Info) Timestamps() []pipeline.Time {
	out := make([]pipeline.Time, len(i.Samples))
	for n, s := range i.Samples {
		out[n] = pipeline.Time{Value: int64(s.DecodeTime), Timescale: int64(i.Timescale)}
	}
	return out
}

// Inspect opens path and describes its video track.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return InspectReader(f)
}

// InspectReader describes the video track of the movie in r.
func InspectReader(r io.ReadSeeker) (Info, error) {
	head := make([]byte, 12)
	if _, err := io.ReadFull(r, head); err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnrecognized, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Info{}, fmt.Errorf("seek: %w", err)
	}

	format, ok := Sniff(head)
	if !ok {
		return Info{}, ErrUnrecognized
	}
	if format == pipeline.FormatAVI {
		return inspectAVI(r)
	}

	info, err := inspectISO(r)
	if err != nil {
		return Info{}, err
	}
	info.Container = format
	return info, nil
}

// Sniff identifies the container from the first 12 bytes of a file.
func Sniff(head []byte) (pipeline.ContainerFormat, bool) {
	if len(head) < 12 {
		return "", false
	}
	if bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("AVI ")) {
		return pipeline.FormatAVI, true
	}
	if bytes.Equal(head[4:8], []byte("ftyp")) {
		if bytes.Equal(head[8:12], []byte("qt  ")) {
			return pipeline.FormatMOV, true
		}
		return pipeline.FormatMP4, true
	}
	switch string(head[4:8]) {
	case "moov", "mdat", "wide", "free":
		return pipeline.FormatMOV, true
	}
	return "", false
}

// CodecOf maps a sample entry fourcc to a codec name.
func CodecOf(sampleType string) string {
	switch sampleType {
	case "avc1", "avc3":
		return CodecH264
	case "av01":
		return CodecAV1
	case "hvc1", "hev1":
		return CodecHEVC
	case "jpeg", "mjpa", "mjpb", "MJPG", "mjpg":
		return CodecJPEG
	default:
		return CodecUnknown
	}
}

func videoTrack(traks []*mp4.TrakBox) *mp4.TrakBox {
	for _, trak := range traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

func describeTrack(trak *mp4.TrakBox, info *Info) {
	if trak.Mdia.Mdhd != nil {
		info.Timescale = trak.Mdia.Mdhd.Timescale
	}
	if trak.Tkhd != nil {
		info.Width = int(trak.Tkhd.Width >> 16)
		info.Height = int(trak.Tkhd.Height >> 16)
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		info.SampleType = child.Type()
		info.Codec = CodecOf(info.SampleType)
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
			info.Width = int(vse.Width)
			info.Height = int(vse.Height)
		}
		break
	}
}

func inspectISO(r io.ReadSeeker) (Info, error) {
	file, err := mp4.DecodeFile(r)
	if err != nil {
		return Info{}, fmt.Errorf("decode mp4: %w", err)
	}

	info := Info{Codec: CodecUnknown}
	if file.IsFragmented() {
		info.Fragmented = true
		return info, inspectFragmented(file, &info)
	}
	return info, inspectProgressive(file, &info)
}

func inspectFragmented(file *mp4.File, info *Info) error {
	if file.Init == nil || file.Init.Moov == nil {
		return fmt.Errorf("no init segment found")
	}
	trak := videoTrack(file.Init.Moov.Traks)
	if trak == nil {
		return ErrNoVideoTrack
	}
	describeTrack(trak, info)
	trackID := trak.Tkhd.TrackID

	var trex *mp4.TrexBox
	if file.Init.Moov.Mvex != nil {
		for _, t := range file.Init.Moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	for _, seg := range file.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			hasTrack := false
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID == trackID {
					hasTrack = true
				}
			}
			if !hasTrack {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return fmt.Errorf("get samples: %w", err)
			}
			for _, s := range samples {
				info.Samples = append(info.Samples, Sample{DecodeTime: s.DecodeTime, Dur: s.Dur})
			}
		}
	}
	return nil
}

func inspectProgressive(file *mp4.File, info *Info) error {
	if file.Moov == nil {
		return fmt.Errorf("no moov box found")
	}
	trak := videoTrack(file.Moov.Traks)
	if trak == nil {
		return ErrNoVideoTrack
	}
	describeTrack(trak, info)

	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return fmt.Errorf("no sample table found")
	}
	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz == nil {
		return fmt.Errorf("no stsz box found")
	}

	for nr := uint32(1); nr <= stbl.Stsz.SampleNumber; nr++ {
		var s Sample
		if stbl.Stts != nil {
			s.DecodeTime, s.Dur = stbl.Stts.GetDecodeTime(nr)
		}
		info.Samples = append(info.Samples, s)
	}
	return nil
}
