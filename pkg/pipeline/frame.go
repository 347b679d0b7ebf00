package pipeline

import (
	"errors"
	"fmt"
	"image"
	"sync/atomic"
)

// MaxFrameBytes bounds the pixel memory of a single frame (32-bit pixels).
const MaxFrameBytes = 1 << 30

// BytesPerPixel is the size of one pixel in a frame buffer.
const BytesPerPixel = 4

var (
	// ErrFrameLocked is returned when locking an already locked frame.
	ErrFrameLocked = errors.New("pipeline: frame already locked")
	// ErrFrameReleased is returned when using a frame after Release.
	ErrFrameReleased = errors.New("pipeline: frame released")
)

// Frame is a fixed-format 32-bit RGBA pixel buffer tagged with a
// presentation timestamp.
//
// Pixel memory is accessed between Lock and Unlock. Encoders read the frame
// through Image once it is unlocked, then call Release.
type Frame struct {
	PTS Time

	img      *image.RGBA
	locked   atomic.Bool
	released atomic.Bool
	recycle  func(*Frame)
}

// NewFrame allocates a frame of the given size.
func NewFrame(size Size) (*Frame, error) {
	if !size.Valid() {
		return nil, NewError(CodeBufferAllocation, fmt.Errorf("invalid frame size %s", size))
	}
	if int64(size.Width)*int64(size.Height)*BytesPerPixel > MaxFrameBytes {
		return nil, NewError(CodeBufferAllocation, fmt.Errorf("frame %s exceeds %d bytes", size, MaxFrameBytes))
	}
	return &Frame{img: image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))}, nil
}

// SetRecycler installs the function Release hands the frame back to.
func (f *Frame) SetRecycler(recycle func(*Frame)) {
	f.recycle = recycle
}

// Reuse makes a released frame usable again. Only pools call this.
func (f *Frame) Reuse() {
	f.released.Store(false)
	f.PTS = Time{}
}

// Size returns the pixel dimensions of the frame.
func (f *Frame) Size() Size {
	b := f.img.Bounds()
	return Size{Width: b.Dx(), Height: b.Dy()}
}

// Lock acquires exclusive access to the pixel memory.
func (f *Frame) Lock() (*image.RGBA, error) {
	if f.released.Load() {
		return nil, ErrFrameReleased
	}
	if !f.locked.CompareAndSwap(false, true) {
		return nil, ErrFrameLocked
	}
	return f.img, nil
}

// Unlock releases access acquired by Lock. Unlocking an unlocked frame is a no-op.
func (f *Frame) Unlock() {
	f.locked.Store(false)
}

// Locked reports whether the pixel memory is currently locked.
func (f *Frame) Locked() bool {
	return f.locked.Load()
}

// Image returns the pixels for reading.
func (f *Frame) Image() *image.RGBA {
	return f.img
}

// Release returns the frame to its pool. The frame must not be used afterwards.
// Releasing twice is a no-op.
func (f *Frame) Release() {
	if !f.released.CompareAndSwap(false, true) {
		return
	}
	f.Unlock()
	if f.recycle != nil {
		f.recycle(f)
	}
}
