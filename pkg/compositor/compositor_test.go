package compositor

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/user/imageseq/pkg/pipeline"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

var (
	red   = color.RGBA{255, 0, 0, 255}
	black = color.RGBA{0, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
)

func rgbaAt(f *pipeline.Frame, x, y int) color.RGBA {
	return f.Image().RGBAAt(x, y)
}

func TestBuildFrame_OutputSizeAlwaysMatches(t *testing.T) {
	c := New(pipeline.ScaleFit, black)
	out := pipeline.Size{Width: 720, Height: 720}
	sources := []image.Image{solid(100, 100, red), solid(200, 50, red), solid(50, 200, red)}
	canvas := CanvasSize(sources)

	for _, src := range sources {
		frame, err := c.BuildFrame(src, canvas, out)
		if err != nil {
			t.Fatalf("BuildFrame(%v) failed: %v", src.Bounds(), err)
		}
		if frame.Size() != out {
			t.Errorf("frame size = %v, want %v", frame.Size(), out)
		}
		if frame.Locked() {
			t.Error("frame should be unlocked after BuildFrame")
		}
		frame.Release()
	}
}

func TestBuildFrame_FitLetterboxes(t *testing.T) {
	c := New(pipeline.ScaleFit, black)
	out := pipeline.Size{Width: 720, Height: 720}

	frame, err := c.BuildFrame(solid(200, 50, red), pipeline.Size{}, out)
	if err != nil {
		t.Fatalf("BuildFrame failed: %v", err)
	}
	defer frame.Release()

	if got := rgbaAt(frame, 360, 360); got != red {
		t.Errorf("center pixel = %v, want red", got)
	}
	if got := rgbaAt(frame, 360, 50); got != black {
		t.Errorf("letterbox pixel = %v, want black", got)
	}
}

func TestBuildFrame_BackgroundColor(t *testing.T) {
	c := New(pipeline.ScaleFit, white)
	frame, err := c.BuildFrame(solid(50, 200, red), pipeline.Size{}, pipeline.Size{Width: 400, Height: 400})
	if err != nil {
		t.Fatalf("BuildFrame failed: %v", err)
	}
	defer frame.Release()

	if got := rgbaAt(frame, 10, 200); got != white {
		t.Errorf("pillarbox pixel = %v, want white", got)
	}
}

func TestBuildFrame_PooledBufferIsCleared(t *testing.T) {
	c := New(pipeline.ScaleFit, black)
	out := pipeline.Size{Width: 64, Height: 64}

	first, err := c.BuildFrame(solid(10, 10, red), pipeline.Size{}, out)
	if err != nil {
		t.Fatal(err)
	}
	first.Release()

	second, err := c.BuildFrame(solid(40, 10, white), pipeline.Size{}, out)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Release()

	if stats := c.Pool().Stats(); stats.Reused != 1 || stats.Allocated != 1 {
		t.Errorf("pool stats = %+v, want 1 allocated and 1 reused", stats)
	}
	if got := rgbaAt(second, 32, 2); got != black {
		t.Errorf("stale pixel survived reuse: %v", got)
	}
}

type modelessImage struct{ image.Rectangle }

func (m modelessImage) ColorModel() color.Model { return nil }
func (m modelessImage) Bounds() image.Rectangle { return m.Rectangle }
func (m modelessImage) At(x, y int) color.Color { return color.Black }

func TestBuildFrame_Errors(t *testing.T) {
	c := New(pipeline.ScaleFit, black)
	out := pipeline.Size{Width: 32, Height: 32}

	tests := []struct {
		name string
		img  image.Image
		out  pipeline.Size
		want error
	}{
		{"nil image", nil, out, pipeline.ErrDrawContext},
		{"empty image", image.NewRGBA(image.Rect(0, 0, 0, 0)), out, pipeline.ErrDrawContext},
		{"no color model", modelessImage{image.Rect(0, 0, 4, 4)}, out, pipeline.ErrColorSpace},
		{"zero output", solid(4, 4, red), pipeline.Size{}, pipeline.ErrBufferAllocation},
		{"huge output", solid(4, 4, red), pipeline.Size{Width: 1 << 16, Height: 1 << 16}, pipeline.ErrBufferAllocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := c.BuildFrame(tt.img, pipeline.Size{}, tt.out)
			if frame != nil {
				t.Error("expected nil frame on error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPlacement(t *testing.T) {
	out := pipeline.Size{Width: 720, Height: 720}
	tests := []struct {
		name   string
		mode   pipeline.ScaleMode
		src    pipeline.Size
		canvas pipeline.Size
		want   image.Rectangle
	}{
		{"fit wide", pipeline.ScaleFit, pipeline.Size{Width: 200, Height: 50}, pipeline.Size{}, image.Rect(0, 270, 720, 450)},
		{"fit tall", pipeline.ScaleFit, pipeline.Size{Width: 50, Height: 200}, pipeline.Size{}, image.Rect(270, 0, 450, 720)},
		{"fill wide", pipeline.ScaleFill, pipeline.Size{Width: 200, Height: 50}, pipeline.Size{}, image.Rect(-1080, 0, 1800, 720)},
		{"stretch", pipeline.ScaleStretch, pipeline.Size{Width: 200, Height: 50}, pipeline.Size{}, image.Rect(0, 0, 720, 720)},
		{"canvas small source", pipeline.ScaleCanvas, pipeline.Size{Width: 100, Height: 100}, pipeline.Size{Width: 200, Height: 200}, image.Rect(180, 180, 540, 540)},
		{"canvas without canvas", pipeline.ScaleCanvas, pipeline.Size{Width: 100, Height: 100}, pipeline.Size{}, image.Rect(0, 0, 720, 720)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Placement(tt.mode, tt.src, tt.canvas, out); got != tt.want {
				t.Errorf("Placement = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanvasSize(t *testing.T) {
	images := []image.Image{
		solid(100, 100, red),
		nil,
		solid(200, 50, red),
		image.NewRGBA(image.Rect(10, 10, 60, 210)),
	}
	got := CanvasSize(images)
	if want := (pipeline.Size{Width: 200, Height: 200}); got != want {
		t.Errorf("CanvasSize = %v, want %v", got, want)
	}
	if got := CanvasSize(nil); got.Valid() {
		t.Errorf("CanvasSize(nil) = %v, want zero", got)
	}
}
