package ports

import (
	"image"

	"github.com/user/imageseq/pkg/pipeline"
)

// FrameBuilder converts a source image into an encoder-ready frame.
type FrameBuilder interface {
	// BuildFrame draws img into a new frame of outputSize. canvas is the
	// largest source size of the run.
	BuildFrame(img image.Image, canvas, outputSize pipeline.Size) (*pipeline.Frame, error)
}

// FrameBuilderFunc is a function adapter for FrameBuilder.
type FrameBuilderFunc func(img image.Image, canvas, outputSize pipeline.Size) (*pipeline.Frame, error)

// BuildFrame implements FrameBuilder.
func (f FrameBuilderFunc) BuildFrame(img image.Image, canvas, outputSize pipeline.Size) (*pipeline.Frame, error) {
	return f(img, canvas, outputSize)
}
