package ports

import (
	"context"
	"errors"

	"github.com/user/imageseq/pkg/pipeline"
)

// ErrNotReady is returned by Append when no readiness grant is held.
var ErrNotReady = errors.New("moviewriter: input not ready for more media data")

// WriterStatus is the lifecycle state of an encoding session.
type WriterStatus int

const (
	// StatusIdle means Begin has not been called.
	StatusIdle WriterStatus = iota
	// StatusWriting means frames are being accepted.
	StatusWriting
	// StatusFinishing means the input is marked finished and the file is
	// being finalized.
	StatusFinishing
	// StatusCompleted means the file was written successfully.
	StatusCompleted
	// StatusFailed means the session failed. Err reports why.
	StatusFailed
	// StatusCancelled means the session was abandoned.
	StatusCancelled
)

// String returns the status name.
func (s WriterStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusWriting:
		return "writing"
	case StatusFinishing:
		return "finishing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// VideoSettings configures the single video track of a session.
type VideoSettings struct {
	Size          pipeline.Size
	TimeBase      int64         // Ticks per second of presentation timestamps
	FrameDuration pipeline.Time // Display duration of each appended frame
	Quality       int           // 1-100, higher is better
}

// WriterInfo describes the encoder a session ended up using.
type WriterInfo struct {
	Format         pipeline.ContainerFormat
	Codec          pipeline.Codec
	RequestedCodec pipeline.Codec
	Backend        string
	FallbackUsed   bool
}

// MovieWriter is an asynchronous encoding session writing one video track.
type MovieWriter interface {
	// Begin configures the video track and starts the session at time zero.
	Begin(settings VideoSettings) error

	// WaitReady blocks until the input can accept another frame and grants
	// one Append. It returns early with ctx.Err() or the session error.
	WaitReady(ctx context.Context) error

	// Append queues the frame at frame.PTS. Ownership of the frame passes to
	// the writer, which releases it after encoding.
	Append(frame *pipeline.Frame) error

	// Finish marks the input finished and finalizes the file asynchronously.
	// done is called once when Status is terminal.
	Finish(done func())

	// Cancel abandons the session and removes any partial output.
	Cancel()

	// Status returns the current lifecycle state.
	Status() WriterStatus

	// Err returns the error that caused StatusFailed, if any.
	Err() error

	// Info describes the selected codec and backend.
	Info() WriterInfo
}

// MovieWriterFactory opens encoding sessions.
type MovieWriterFactory interface {
	// NewWriter creates a session targeting path.
	NewWriter(path string, format pipeline.ContainerFormat, codec pipeline.Codec) (MovieWriter, error)
}
