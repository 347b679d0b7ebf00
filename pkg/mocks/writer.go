package mocks

import (
	"context"
	"sync"

	"github.com/user/imageseq/pkg/pipeline"
	"github.com/user/imageseq/pkg/ports"
)

// AppendedFrame records a frame accepted by MovieWriter.
type AppendedFrame struct {
	PTS  pipeline.Time
	Size pipeline.Size
}

// MovieWriter is a mock implementation of ports.MovieWriter.
// It enforces one Append per WaitReady grant and releases appended frames.
type MovieWriter struct {
	mu       sync.Mutex
	status   ports.WriterStatus
	err      error
	granted  int
	settings ports.VideoSettings
	frames   []AppendedFrame

	BeginErr      error
	WaitReadyFunc func(ctx context.Context) error
	AppendErr     func(index int) error
	// FinalStatus and FinalErr are applied by Finish. The default is
	// StatusCompleted with no error.
	FinalStatus ports.WriterStatus
	FinalErr    error
	InfoValue   ports.WriterInfo

	WaitCalls   int
	FinishCalls int
	CancelCalls int
}

// NewMovieWriter creates a mock writer that completes successfully.
func NewMovieWriter() *MovieWriter {
	return &MovieWriter{FinalStatus: ports.StatusCompleted}
}

func (m *MovieWriter) Begin(settings ports.VideoSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BeginErr != nil {
		return m.BeginErr
	}
	m.settings = settings
	m.status = ports.StatusWriting
	return nil
}

func (m *MovieWriter) WaitReady(ctx context.Context) error {
	m.mu.Lock()
	m.WaitCalls++
	fn := m.WaitReadyFunc
	m.mu.Unlock()

	if fn != nil {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.granted = 1
	return nil
}

func (m *MovieWriter) Append(frame *pipeline.Frame) error {
	defer frame.Release()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.granted == 0 {
		return ports.ErrNotReady
	}
	m.granted = 0
	if m.AppendErr != nil {
		if err := m.AppendErr(len(m.frames)); err != nil {
			return err
		}
	}
	m.frames = append(m.frames, AppendedFrame{PTS: frame.PTS, Size: frame.Size()})
	return nil
}

func (m *MovieWriter) Finish(done func()) {
	m.mu.Lock()
	m.FinishCalls++
	m.status = m.FinalStatus
	m.err = m.FinalErr
	m.mu.Unlock()
	go done()
}

func (m *MovieWriter) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelCalls++
	if m.status == ports.StatusWriting || m.status == ports.StatusIdle {
		m.status = ports.StatusCancelled
	}
}

func (m *MovieWriter) Status() ports.WriterStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *MovieWriter) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MovieWriter) Info() ports.WriterInfo {
	return m.InfoValue
}

// Fail puts the writer into the failed state, as an encoder error would.
func (m *MovieWriter) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = ports.StatusFailed
	m.err = err
}

// Settings returns the settings passed to Begin.
func (m *MovieWriter) Settings() ports.VideoSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// Frames returns the appended frames in order.
func (m *MovieWriter) Frames() []AppendedFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AppendedFrame(nil), m.frames...)
}

// MovieWriterFactory is a mock implementation of ports.MovieWriterFactory.
type MovieWriterFactory struct {
	mu     sync.Mutex
	Writer *MovieWriter
	Err    error
	Paths  []string
}

// NewMovieWriterFactory creates a factory handing out w.
func NewMovieWriterFactory(w *MovieWriter) *MovieWriterFactory {
	return &MovieWriterFactory{Writer: w}
}

func (f *MovieWriterFactory) NewWriter(path string, format pipeline.ContainerFormat, codec pipeline.Codec) (ports.MovieWriter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Paths = append(f.Paths, path)
	if f.Err != nil {
		return nil, f.Err
	}
	f.Writer.InfoValue.Format = format
	f.Writer.InfoValue.RequestedCodec = codec
	return f.Writer, nil
}

var (
	_ ports.MovieWriter        = (*MovieWriter)(nil)
	_ ports.MovieWriterFactory = (*MovieWriterFactory)(nil)
)
