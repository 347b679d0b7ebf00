// Package moviewriter provides asynchronous movie encoding sessions backed by
// mp4ff, ffmpeg or an MJPEG AVI writer.
package moviewriter

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/imageseq/pkg/pipeline"
	"github.com/user/imageseq/pkg/ports"
)

// DefaultQueueDepth is the number of frames that may be in flight between
// Append and the encoder.
const DefaultQueueDepth = 2

// backend encodes frames into one output file.
// write is only called from the session worker goroutine.
type backend interface {
	open(path string, settings ports.VideoSettings) error
	write(frame *pipeline.Frame) error
	close() error
	abort()
}

// Writer is an encoding session implementing ports.MovieWriter.
//
// Readiness is a token channel of capacity depth. WaitReady takes a token and
// grants one Append; the worker returns the token once the frame is encoded.
type Writer struct {
	path   string
	choose selector
	depth  int
	logger ports.Logger

	mu       sync.Mutex
	info     ports.WriterInfo
	backend  backend
	status   ports.WriterStatus
	err      error
	granted  int
	lastPTS  pipeline.Time
	appended int

	tokens      chan struct{}
	queue       chan *pipeline.Frame
	queueClosed bool
	workerDone  chan struct{}
	closed      chan struct{}
	closeOnce   sync.Once
	abortOnce   sync.Once
}

// selector picks the backend for a session once the video settings are known.
type selector func(settings ports.VideoSettings) (backend, ports.WriterInfo, error)

func newWriter(path string, info ports.WriterInfo, choose selector, depth int, logger ports.Logger) *Writer {
	if depth < 1 {
		depth = 1
	}
	return &Writer{
		path:   path,
		info:   info,
		choose: choose,
		depth:  depth,
		logger: logger,
		status: ports.StatusIdle,
		closed: make(chan struct{}),
	}
}

// Path returns the output file path.
func (w *Writer) Path() string {
	return w.path
}

// Begin opens the output and starts the encoding worker at time zero.
func (w *Writer) Begin(settings ports.VideoSettings) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.status != ports.StatusIdle {
		return ErrAlreadyStarted
	}
	if !settings.Size.Valid() {
		return fmt.Errorf("moviewriter: invalid frame size %s", settings.Size)
	}
	if settings.TimeBase <= 0 {
		settings.TimeBase = pipeline.TimeBase
	}
	if settings.Quality <= 0 || settings.Quality > 100 {
		settings.Quality = pipeline.DefaultQuality
	}

	b, info, err := w.choose(settings)
	if err != nil {
		return err
	}
	if err := b.open(w.path, settings); err != nil {
		return fmt.Errorf("moviewriter: open %s: %w", w.path, err)
	}
	w.backend = b
	w.info = info

	w.tokens = make(chan struct{}, w.depth)
	for i := 0; i < w.depth; i++ {
		w.tokens <- struct{}{}
	}
	w.queue = make(chan *pipeline.Frame, w.depth)
	w.workerDone = make(chan struct{})
	w.status = ports.StatusWriting

	w.logger.Debug("Session started: %s %s via %s, %s", w.info.Format, w.info.Codec, w.info.Backend, settings.Size)
	go w.work()
	return nil
}

// WaitReady blocks until the encoder can take another frame.
func (w *Writer) WaitReady(ctx context.Context) error {
	w.mu.Lock()
	status, tokens := w.status, w.tokens
	w.mu.Unlock()

	switch status {
	case ports.StatusWriting:
	case ports.StatusFailed:
		return w.Err()
	case ports.StatusCancelled:
		return ErrSessionClosed
	default:
		return ErrNotWriting
	}

	select {
	case <-tokens:
	case <-w.closed:
		if err := w.Err(); err != nil {
			return err
		}
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status != ports.StatusWriting {
		w.tokens <- struct{}{}
		if w.err != nil {
			return w.err
		}
		return ErrNotWriting
	}
	w.granted++
	return nil
}

// Append queues a frame for encoding. The frame is released by the writer,
// including when Append fails.
func (w *Writer) Append(frame *pipeline.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.status != ports.StatusWriting {
		frame.Release()
		if w.err != nil {
			return w.err
		}
		return ErrNotWriting
	}
	if w.granted == 0 {
		frame.Release()
		return ports.ErrNotReady
	}
	if w.appended > 0 && frame.PTS.Rescale(pipeline.TimeBase) < w.lastPTS.Rescale(pipeline.TimeBase) {
		frame.Release()
		return fmt.Errorf("%w: %s after %s", ErrTimestampOrder, frame.PTS, w.lastPTS)
	}

	w.granted--
	w.lastPTS = frame.PTS
	w.appended++
	w.queue <- frame
	return nil
}

// Finish closes the input and finalizes the file on a separate goroutine.
// done is invoked exactly once after the status becomes terminal.
func (w *Writer) Finish(done func()) {
	if done == nil {
		done = func() {}
	}

	w.mu.Lock()
	switch w.status {
	case ports.StatusWriting:
	case ports.StatusFailed:
		workerDone := w.closeQueueLocked()
		w.mu.Unlock()
		go func() {
			defer done()
			if workerDone != nil {
				<-workerDone
				w.abort()
			}
		}()
		return
	case ports.StatusIdle:
		w.status = ports.StatusFailed
		w.err = ErrNotWriting
		fallthrough
	default:
		w.mu.Unlock()
		go done()
		return
	}
	w.status = ports.StatusFinishing
	w.closeQueueLocked()
	w.mu.Unlock()

	go func() {
		defer done()
		<-w.workerDone

		w.mu.Lock()
		failed := w.err != nil
		w.mu.Unlock()
		if failed {
			w.abort()
			return
		}

		if err := w.backend.close(); err != nil {
			w.fail(err)
			w.abort()
			return
		}

		w.mu.Lock()
		w.status = ports.StatusCompleted
		n := w.appended
		w.mu.Unlock()
		w.closeOnce.Do(func() { close(w.closed) })
		w.logger.Debug("Session completed: %d frames written to %s", n, w.path)
	}()
}

// Cancel abandons the session and removes partial output. Cancelling a
// finishing or completed session has no effect.
func (w *Writer) Cancel() {
	w.mu.Lock()
	switch w.status {
	case ports.StatusIdle:
		w.status = ports.StatusCancelled
		w.mu.Unlock()
		w.closeOnce.Do(func() { close(w.closed) })
		return
	case ports.StatusWriting:
		w.status = ports.StatusCancelled
	case ports.StatusFailed:
	default:
		w.mu.Unlock()
		return
	}
	workerDone := w.closeQueueLocked()
	w.mu.Unlock()
	if workerDone == nil {
		return
	}

	w.closeOnce.Do(func() { close(w.closed) })
	<-workerDone
	w.abort()
	w.logger.Debug("Session cancelled: %s removed", w.path)
}

// Status returns the current lifecycle state.
func (w *Writer) Status() ports.WriterStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Err returns the failure cause, if any.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Info describes the selected encoder.
func (w *Writer) Info() ports.WriterInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.info
}

// work encodes queued frames until the queue is closed. After a failure or
// cancellation remaining frames are released without encoding.
func (w *Writer) work() {
	defer close(w.workerDone)
	for frame := range w.queue {
		w.mu.Lock()
		skip := w.status == ports.StatusFailed || w.status == ports.StatusCancelled
		w.mu.Unlock()

		if !skip {
			if err := w.backend.write(frame); err != nil {
				w.fail(fmt.Errorf("moviewriter: encode frame at %s: %w", frame.PTS, err))
			}
		}
		frame.Release()
		w.tokens <- struct{}{}
	}
}

// closeQueueLocked stops the worker input once and returns the channel closed
// when the worker exits. It returns nil when no worker was started.
func (w *Writer) closeQueueLocked() chan struct{} {
	if w.queue == nil {
		return nil
	}
	if !w.queueClosed {
		w.queueClosed = true
		close(w.queue)
	}
	return w.workerDone
}

func (w *Writer) fail(err error) {
	w.mu.Lock()
	if w.status == ports.StatusWriting || w.status == ports.StatusFinishing {
		w.status = ports.StatusFailed
		w.err = err
	}
	w.mu.Unlock()
	w.closeOnce.Do(func() { close(w.closed) })
	w.logger.Warn("Session failed: %v", err)
}

func (w *Writer) abort() {
	w.abortOnce.Do(func() {
		if w.backend != nil {
			w.backend.abort()
		}
	})
}

var _ ports.MovieWriter = (*Writer)(nil)
