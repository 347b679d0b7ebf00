package moviewriter

import "errors"

var (
	// ErrNotWriting is returned when frames are offered outside the writing state.
	ErrNotWriting = errors.New("moviewriter: session is not writing")

	// ErrAlreadyStarted is returned when Begin is called twice.
	ErrAlreadyStarted = errors.New("moviewriter: session already started")

	// ErrSessionClosed is returned by WaitReady after Cancel.
	ErrSessionClosed = errors.New("moviewriter: session closed")

	// ErrTimestampOrder is returned when a frame's timestamp precedes the previous one.
	ErrTimestampOrder = errors.New("moviewriter: presentation timestamps must not decrease")

	// ErrUnsupported is returned for unsupported container/codec combinations.
	ErrUnsupported = errors.New("moviewriter: unsupported container and codec combination")

	// ErrFFmpegNotFound is returned when ffmpeg cannot be located.
	ErrFFmpegNotFound = errors.New("moviewriter: ffmpeg not found in PATH")

	// ErrOddDimensions is returned when H.264 output has an odd width or height.
	ErrOddDimensions = errors.New("moviewriter: h264 output requires even dimensions")
)
