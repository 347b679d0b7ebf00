// Package compositor converts source images into fixed-size RGBA frames
// ready for encoding.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/user/imageseq/pkg/pipeline"
	"github.com/user/imageseq/pkg/ports"
	"golang.org/x/image/draw"
)

// Compositor draws each source image into a pooled frame buffer.
// It is safe for concurrent use.
type Compositor struct {
	mode       pipeline.ScaleMode
	background color.Color
	pool       *BufferPool
	rotation   float64 // degrees; always zero, no orientation correction
}

// New creates a compositor using the given scaling policy and background.
func New(mode pipeline.ScaleMode, background color.Color) *Compositor {
	if background == nil {
		background = color.Black
	}
	return &Compositor{
		mode:       mode,
		background: background,
		pool:       NewBufferPool(DefaultPoolDepth),
	}
}

// NewFromOptions creates a compositor from sequencer options.
func NewFromOptions(opts pipeline.Options) *Compositor {
	return New(opts.ScaleMode, opts.Background)
}

// Pool returns the buffer pool backing this compositor.
func (c *Compositor) Pool() *BufferPool {
	return c.pool
}

// BuildFrame draws img into a new frame of outputSize.
//
// The frame is locked for the duration of the draw and unlocked on every
// return path. On error the frame is released back to the pool.
func (c *Compositor) BuildFrame(img image.Image, canvas, outputSize pipeline.Size) (*pipeline.Frame, error) {
	if img == nil {
		return nil, pipeline.NewError(pipeline.CodeDrawContext, errors.New("nil source image"))
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, pipeline.NewError(pipeline.CodeDrawContext, fmt.Errorf("empty source image %v", bounds))
	}
	if img.ColorModel() == nil {
		return nil, pipeline.NewError(pipeline.CodeColorSpace, errors.New("source image has no color model"))
	}

	frame, err := c.pool.Get(outputSize)
	if err != nil {
		return nil, err
	}

	if err := c.draw(frame, img, canvas, outputSize); err != nil {
		frame.Release()
		return nil, err
	}
	return frame, nil
}

func (c *Compositor) draw(frame *pipeline.Frame, img image.Image, canvas, outputSize pipeline.Size) error {
	pix, err := frame.Lock()
	if err != nil {
		return pipeline.NewError(pipeline.CodeDrawContext, err)
	}
	defer frame.Unlock()

	if len(pix.Pix) < outputSize.Width*outputSize.Height*pipeline.BytesPerPixel {
		return pipeline.NewError(pipeline.CodeDrawContext,
			fmt.Errorf("buffer holds %d bytes, need %d", len(pix.Pix), outputSize.Width*outputSize.Height*pipeline.BytesPerPixel))
	}

	dc := gg.NewContextForRGBA(pix)
	dc.SetColor(c.background)
	dc.Clear()

	srcSize := pipeline.Size{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	rect := Placement(c.mode, srcSize, canvas, outputSize)
	scaled := resize(img, rect.Dx(), rect.Dy())

	w, h := float64(outputSize.Width), float64(outputSize.Height)
	dc.Push()
	dc.RotateAbout(gg.Radians(c.rotation), w/2, h/2)
	dc.Translate(float64(rect.Min.X), float64(rect.Min.Y))
	dc.DrawImage(scaled, 0, 0)
	dc.Pop()
	return nil
}

// Placement returns the rectangle in output coordinates that a source of
// size src occupies under the given scaling mode. The rectangle may extend
// past the output bounds in fill mode.
func Placement(mode pipeline.ScaleMode, src, canvas, out pipeline.Size) image.Rectangle {
	sw, sh := float64(src.Width), float64(src.Height)
	ow, oh := float64(out.Width), float64(out.Height)

	var x, y, w, h float64
	switch mode {
	case pipeline.ScaleStretch:
		x, y, w, h = 0, 0, ow, oh
	case pipeline.ScaleFill:
		s := math.Max(ow/sw, oh/sh)
		w, h = sw*s, sh*s
		x, y = (ow-w)/2, (oh-h)/2
	case pipeline.ScaleCanvas:
		if !canvas.Valid() {
			canvas = src
		}
		cw, ch := float64(canvas.Width), float64(canvas.Height)
		s := math.Min(ow/cw, oh/ch)
		ox, oy := (ow-cw*s)/2, (oh-ch*s)/2
		x = ox + (cw-sw)/2*s
		y = oy + (ch-sh)/2*s
		w, h = sw*s, sh*s
	default:
		s := math.Min(ow/sw, oh/sh)
		w, h = sw*s, sh*s
		x, y = (ow-w)/2, (oh-h)/2
	}

	x0, y0 := int(math.Round(x)), int(math.Round(y))
	dw := max(1, int(math.Round(w)))
	dh := max(1, int(math.Round(h)))
	return image.Rect(x0, y0, x0+dw, y0+dh)
}

// CanvasSize returns the largest width and largest height across images.
// Nil images are skipped.
func CanvasSize(images []image.Image) pipeline.Size {
	var size pipeline.Size
	for _, img := range images {
		if img == nil {
			continue
		}
		b := img.Bounds()
		size.Width = max(size.Width, b.Dx())
		size.Height = max(size.Height, b.Dy())
	}
	return size
}

// resize resamples img to width x height with its origin at zero.
func resize(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && b.Dx() == width && b.Dy() == height {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if b.Dx() == width && b.Dy() == height {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

var _ ports.FrameBuilder = (*Compositor)(nil)
