package probe

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/user/imageseq/pkg/pipeline"
)

// aviMainHeader holds the avih fields the probe reports.
type aviMainHeader struct {
	microSecPerFrame uint32
	totalFrames      uint32
	width            uint32
	height           uint32
}

// aviStreamHeader holds the strh fields of the video stream.
type aviStreamHeader struct {
	handler string
	scale   uint32
	rate    uint32
	length  uint32
}

// inspectAVI walks the RIFF hdrl list. Every stream header after the first
// video stream is ignored.
func inspectAVI(r io.ReadSeeker) (Info, error) {
	if _, err := r.Seek(12, io.SeekStart); err != nil {
		return Info{}, fmt.Errorf("seek: %w", err)
	}

	var (
		avih    *aviMainHeader
		strh    *aviStreamHeader
		chunkID [4]byte
		size    uint32
	)
	for avih == nil || strh == nil {
		if err := binary.Read(r, binary.LittleEndian, &chunkID); err != nil {
			break
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			break
		}

		switch string(chunkID[:]) {
		case "LIST":
			var listType [4]byte
			if err := binary.Read(r, binary.LittleEndian, &listType); err != nil {
				return Info{}, fmt.Errorf("read list type: %w", err)
			}
			if t := string(listType[:]); t != "hdrl" && t != "strl" {
				if _, err := r.Seek(int64(size)-4+int64(size&1), io.SeekCurrent); err != nil {
					return Info{}, fmt.Errorf("skip list %s: %w", t, err)
				}
			}
		case "avih":
			data, err := readChunk(r, size)
			if err != nil {
				return Info{}, err
			}
			if len(data) >= 40 {
				avih = &aviMainHeader{
					microSecPerFrame: binary.LittleEndian.Uint32(data[0:4]),
					totalFrames:      binary.LittleEndian.Uint32(data[16:20]),
					width:            binary.LittleEndian.Uint32(data[32:36]),
					height:           binary.LittleEndian.Uint32(data[36:40]),
				}
			}
		case "strh":
			data, err := readChunk(r, size)
			if err != nil {
				return Info{}, err
			}
			if len(data) >= 36 && string(data[0:4]) == "vids" && strh == nil {
				strh = &aviStreamHeader{
					handler: string(data[4:8]),
					scale:   binary.LittleEndian.Uint32(data[20:24]),
					rate:    binary.LittleEndian.Uint32(data[24:28]),
					length:  binary.LittleEndian.Uint32(data[32:36]),
				}
			}
		default:
			if _, err := r.Seek(int64(size)+int64(size&1), io.SeekCurrent); err != nil {
				return Info{}, fmt.Errorf("skip chunk: %w", err)
			}
		}
	}

	if avih == nil {
		return Info{}, fmt.Errorf("%w: missing avih header", ErrUnrecognized)
	}
	if strh == nil {
		return Info{}, ErrNoVideoTrack
	}

	info := Info{
		Container:  pipeline.FormatAVI,
		SampleType: strh.handler,
		Codec:      CodecOf(strh.handler),
		Width:      int(avih.width),
		Height:     int(avih.height),
	}

	scale, rate := strh.scale, strh.rate
	if scale == 0 || rate == 0 {
		scale, rate = avih.microSecPerFrame, 1000000
	}
	info.Timescale = rate

	frames := avih.totalFrames
	if strh.length > 0 {
		frames = strh.length
	}
	info.Samples = make([]Sample, frames)
	for i := range info.Samples {
		info.Samples[i] = Sample{DecodeTime: uint64(i) * uint64(scale), Dur: scale}
	}
	return info, nil
}

// maxHeaderChunk bounds the header chunks read into memory.
const maxHeaderChunk = 1 << 16

func readChunk(r io.ReadSeeker, size uint32) ([]byte, error) {
	if size > maxHeaderChunk {
		return nil, fmt.Errorf("%w: header chunk of %d bytes", ErrUnrecognized, size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read chunk: %w", err)
	}
	if size&1 == 1 {
		if _, err := r.Seek(1, io.SeekCurrent); err != nil {
			return nil, err
		}
	}
	return data, nil
}
