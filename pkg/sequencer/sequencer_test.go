package sequencer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/user/imageseq/pkg/adapters/moviewriter"
	"github.com/user/imageseq/pkg/adapters/osfilesystem"
	"github.com/user/imageseq/pkg/compositor"
	"github.com/user/imageseq/pkg/metrics"
	"github.com/user/imageseq/pkg/mocks"
	"github.com/user/imageseq/pkg/pipeline"
	"github.com/user/imageseq/pkg/ports"
	"github.com/user/imageseq/pkg/probe"
)

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{200, uint8(x), uint8(y), 255})
		}
	}
	return img
}

func scenarioImages() []image.Image {
	return []image.Image{solid(100, 100), solid(200, 50), solid(50, 200)}
}

func scenarioOptions(t *testing.T) pipeline.Options {
	opts := pipeline.DefaultOptions(pipeline.Size{Width: 720, Height: 720})
	opts.SecondsPerImage = 2.5
	opts.LocalPath = filepath.Join(t.TempDir(), "out.mov")
	return opts
}

// recorder collects callback events in order.
type recorder struct {
	mu       sync.Mutex
	events   []string
	progress []float64
	paths    []string
	errs     []error
	done     chan struct{}
	once     sync.Once
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnProgress: func(p float64) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, "progress")
			r.progress = append(r.progress, p)
		},
		OnSuccess: func(path string) {
			r.mu.Lock()
			r.events = append(r.events, "success")
			r.paths = append(r.paths, path)
			r.mu.Unlock()
			r.once.Do(func() { close(r.done) })
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.events = append(r.events, "error")
			r.errs = append(r.errs, err)
			r.mu.Unlock()
			r.once.Do(func() { close(r.done) })
		},
	}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(10 * time.Second):
		t.Fatal("no terminal callback")
	}
	// Give a second terminal callback the chance to show up.
	time.Sleep(10 * time.Millisecond)
}

func (r *recorder) terminalCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths) + len(r.errs)
}

func newTestSequencer(w *mocks.MovieWriter, opts ...Option) (*Sequencer, *mocks.MovieWriterFactory, *mocks.FileSystem) {
	factory := mocks.NewMovieWriterFactory(w)
	fs := mocks.NewFileSystem()
	return New(factory, fs, opts...), factory, fs
}

func TestCreateLocalMovie_Scenario(t *testing.T) {
	w := mocks.NewMovieWriter()
	s, _, _ := newTestSequencer(w)
	opts := scenarioOptions(t)
	rec := newRecorder()

	s.CreateLocalMovie(context.Background(), scenarioImages(), opts, rec.callbacks())
	rec.wait(t)

	frames := w.Frames()
	if len(frames) != 3 {
		t.Fatalf("appended %d frames, want 3", len(frames))
	}
	for i, want := range []int64{0, 240, 480} {
		if frames[i].PTS != pipeline.NewTime(want) {
			t.Errorf("frame %d PTS = %s, want %d/600", i, frames[i].PTS, want)
		}
		if frames[i].Size != opts.OutputSize {
			t.Errorf("frame %d size = %s, want %s", i, frames[i].Size, opts.OutputSize)
		}
	}

	wantProgress := []float64{1.0 / 3, 2.0 / 3, 1}
	if len(rec.progress) != 3 {
		t.Fatalf("progress calls = %v, want 3", rec.progress)
	}
	for i, p := range rec.progress {
		if math.Abs(p-wantProgress[i]) > 1e-9 {
			t.Errorf("progress[%d] = %v, want %v", i, p, wantProgress[i])
		}
	}

	wantEvents := []string{"progress", "progress", "progress", "success"}
	if len(rec.events) != len(wantEvents) {
		t.Fatalf("events = %v, want %v", rec.events, wantEvents)
	}
	for i := range wantEvents {
		if rec.events[i] != wantEvents[i] {
			t.Errorf("events = %v, want %v", rec.events, wantEvents)
			break
		}
	}
	if rec.paths[0] != opts.LocalPath {
		t.Errorf("success path = %s, want %s", rec.paths[0], opts.LocalPath)
	}

	settings := w.Settings()
	if settings.TimeBase != 600 || settings.FrameDuration != pipeline.NewTime(240) {
		t.Errorf("settings = %+v, want 600 time base and 240 tick", settings)
	}
	if w.FinishCalls != 1 {
		t.Errorf("Finish called %d times, want 1", w.FinishCalls)
	}
}

func TestCreateLocalMovie_BuildFailureOnSecondImage(t *testing.T) {
	w := mocks.NewMovieWriter()
	comp := compositor.New(pipeline.ScaleFit, color.Black)
	calls := 0
	builder := ports.FrameBuilderFunc(func(img image.Image, canvas, out pipeline.Size) (*pipeline.Frame, error) {
		calls++
		if calls == 2 {
			return nil, pipeline.NewError(pipeline.CodeDrawContext, errors.New("forced"))
		}
		return comp.BuildFrame(img, canvas, out)
	})
	s, _, _ := newTestSequencer(w, WithFrameBuilder(builder))
	rec := newRecorder()

	s.CreateLocalMovie(context.Background(), scenarioImages(), scenarioOptions(t), rec.callbacks())
	rec.wait(t)

	if len(rec.progress) != 1 {
		t.Errorf("progress calls = %d, want 1", len(rec.progress))
	}
	if len(rec.paths) != 0 {
		t.Error("success should never fire")
	}
	if len(rec.errs) != 1 || !errors.Is(rec.errs[0], pipeline.ErrDrawContext) {
		t.Errorf("errors = %v, want one draw context error", rec.errs)
	}
	if w.FinishCalls != 0 {
		t.Error("finalize must not run after a build failure")
	}
	if w.CancelCalls != 1 {
		t.Errorf("Cancel called %d times, want 1", w.CancelCalls)
	}
}

func TestCreateLocalMovie_EmptyImages(t *testing.T) {
	w := mocks.NewMovieWriter()
	s, factory, fs := newTestSequencer(w)
	rec := newRecorder()

	s.CreateLocalMovie(context.Background(), nil, scenarioOptions(t), rec.callbacks())
	rec.wait(t)

	if len(rec.errs) != 1 || !errors.Is(rec.errs[0], pipeline.ErrNoImages) {
		t.Errorf("errors = %v, want ErrNoImages", rec.errs)
	}
	if len(factory.Paths) != 0 || len(fs.RemovedPaths()) != 0 {
		t.Error("no session or file operation should happen for an empty list")
	}
}

func TestCreateLocalMovie_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*pipeline.Options)
	}{
		{"zero seconds", func(o *pipeline.Options) { o.SecondsPerImage = 0 }},
		{"negative seconds", func(o *pipeline.Options) { o.SecondsPerImage = -1 }},
		{"NaN seconds", func(o *pipeline.Options) { o.SecondsPerImage = math.NaN() }},
		{"tick overflow", func(o *pipeline.Options) { o.SecondsPerImage = 1e-7 }},
		{"near-zero seconds", func(o *pipeline.Options) { o.SecondsPerImage = 1e-300 }},
		{"zero width", func(o *pipeline.Options) { o.OutputSize.Width = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestSequencer(mocks.NewMovieWriter())
			opts := scenarioOptions(t)
			tt.modify(&opts)

			_, err := s.Run(context.Background(), scenarioImages(), opts, nil)
			if !errors.Is(err, pipeline.ErrInvalidOptions) {
				t.Errorf("expected ErrInvalidOptions, got %v", err)
			}
		})
	}
}

func TestCreateLocalMovie_RemovesExistingFile(t *testing.T) {
	w := mocks.NewMovieWriter()
	s, _, fs := newTestSequencer(w)
	opts := scenarioOptions(t)
	fs.WriteFile(opts.LocalPath, []byte("old movie"))

	if _, err := s.Run(context.Background(), scenarioImages(), opts, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, ok := fs.GetFile(opts.LocalPath); ok {
		t.Error("pre-existing file should be removed")
	}
}

func TestCreateLocalMovie_RemoveFailureIgnored(t *testing.T) {
	w := mocks.NewMovieWriter()
	s, _, fs := newTestSequencer(w)
	fs.RemoveFunc = func(string) error { return errors.New("permission denied") }

	if _, err := s.Run(context.Background(), scenarioImages(), scenarioOptions(t), nil); err != nil {
		t.Errorf("remove failure should be ignored, got %v", err)
	}
}

func TestCreateLocalMovie_LocalPathIsDirectory(t *testing.T) {
	s, factory, fs := newTestSequencer(mocks.NewMovieWriter())
	opts := scenarioOptions(t)
	fs.MkdirAll(opts.LocalPath)

	_, err := s.Run(context.Background(), scenarioImages(), opts, nil)
	if !errors.Is(err, pipeline.ErrLocalPath) {
		t.Errorf("expected ErrLocalPath, got %v", err)
	}
	if len(factory.Paths) != 0 || len(fs.RemovedPaths()) != 0 {
		t.Error("no session or removal should happen for a directory path")
	}
}

func TestCreateLocalMovie_LocalPathStatError(t *testing.T) {
	s, factory, fs := newTestSequencer(mocks.NewMovieWriter())
	fs.IsDirFunc = func(string) (bool, error) { return false, errors.New("permission denied") }

	_, err := s.Run(context.Background(), scenarioImages(), scenarioOptions(t), nil)
	if !errors.Is(err, pipeline.ErrLocalPath) {
		t.Errorf("expected ErrLocalPath, got %v", err)
	}
	if len(factory.Paths) != 0 {
		t.Error("no session should be created")
	}
}

func TestCreateLocalMovie_SessionCreationErrors(t *testing.T) {
	t.Run("factory", func(t *testing.T) {
		s, factory, _ := newTestSequencer(mocks.NewMovieWriter())
		factory.Err = errors.New("no encoder")
		_, err := s.Run(context.Background(), scenarioImages(), scenarioOptions(t), nil)
		if !errors.Is(err, pipeline.ErrSessionCreation) {
			t.Errorf("expected ErrSessionCreation, got %v", err)
		}
	})
	t.Run("begin", func(t *testing.T) {
		w := mocks.NewMovieWriter()
		w.BeginErr = errors.New("cannot open")
		s, _, _ := newTestSequencer(w)
		_, err := s.Run(context.Background(), scenarioImages(), scenarioOptions(t), nil)
		if !errors.Is(err, pipeline.ErrSessionCreation) {
			t.Errorf("expected ErrSessionCreation, got %v", err)
		}
		if len(w.Frames()) != 0 {
			t.Error("no frames should be appended")
		}
	})
}

func TestCreateLocalMovie_FinalizeOutcomes(t *testing.T) {
	boom := errors.New("moov write failed")
	tests := []struct {
		name    string
		status  ports.WriterStatus
		err     error
		want    error
		wantErr error
	}{
		{"failed with error", ports.StatusFailed, boom, pipeline.ErrEncoderFinalize, boom},
		{"failed without error", ports.StatusFailed, nil, pipeline.ErrUnknown, nil},
		{"unexpected state", ports.StatusCancelled, nil, pipeline.ErrUnknown, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := mocks.NewMovieWriter()
			w.FinalStatus = tt.status
			w.FinalErr = tt.err
			s, _, _ := newTestSequencer(w)

			var progress int
			_, err := s.Run(context.Background(), scenarioImages(), scenarioOptions(t), func(float64) { progress++ })
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected cause %v, got %v", tt.wantErr, err)
			}
			if progress != 3 {
				t.Errorf("progress calls = %d, want 3", progress)
			}
		})
	}
}

func TestCreateLocalMovie_AppendFailure(t *testing.T) {
	w := mocks.NewMovieWriter()
	w.AppendErr = func(i int) error {
		if i == 1 {
			return errors.New("rejected")
		}
		return nil
	}
	s, _, _ := newTestSequencer(w)

	_, err := s.Run(context.Background(), scenarioImages(), scenarioOptions(t), nil)
	if !errors.Is(err, pipeline.ErrFrameAppend) {
		t.Errorf("expected ErrFrameAppend, got %v", err)
	}
	if w.CancelCalls != 1 || w.FinishCalls != 0 {
		t.Errorf("cancel %d finish %d, want 1 and 0", w.CancelCalls, w.FinishCalls)
	}
}

func TestCreateLocalMovie_WriterFailsWhileWaiting(t *testing.T) {
	boom := errors.New("encoder crashed")
	w := mocks.NewMovieWriter()
	waits := 0
	w.WaitReadyFunc = func(context.Context) error {
		waits++
		if waits == 2 {
			w.Fail(boom)
			return boom
		}
		return nil
	}
	s, _, _ := newTestSequencer(w)

	_, err := s.Run(context.Background(), scenarioImages(), scenarioOptions(t), nil)
	if !errors.Is(err, pipeline.ErrEncoderFinalize) || !errors.Is(err, boom) {
		t.Errorf("expected encoder finalize error wrapping %v, got %v", boom, err)
	}
}

func TestCreateLocalMovie_ContextCancelled(t *testing.T) {
	w := mocks.NewMovieWriter()
	s, _, _ := newTestSequencer(w)

	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	_, err := s.Run(ctx, scenarioImages(), scenarioOptions(t), func(float64) { once.Do(cancel) })

	if !errors.Is(err, pipeline.ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled cause, got %v", err)
	}
	if len(w.Frames()) != 1 || w.CancelCalls != 1 {
		t.Errorf("frames %d cancel %d, want 1 and 1", len(w.Frames()), w.CancelCalls)
	}
}

func TestCreateLocalMovie_Metrics(t *testing.T) {
	m := metrics.New()
	s, _, _ := newTestSequencer(mocks.NewMovieWriter(), WithMetrics(m))

	if _, err := s.Run(context.Background(), scenarioImages(), scenarioOptions(t), nil); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(m.FramesAppended); got != 3 {
		t.Errorf("frames appended = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.RunsFinished.WithLabelValues(metrics.OutcomeSuccess, "")); got != 1 {
		t.Errorf("successful runs = %v, want 1", got)
	}
}

func TestCreateLocalMovie_TerminalFiresOnce(t *testing.T) {
	w := mocks.NewMovieWriter()
	s, _, _ := newTestSequencer(w)
	rec := newRecorder()

	s.CreateLocalMovie(context.Background(), scenarioImages(), scenarioOptions(t), rec.callbacks())
	rec.wait(t)

	if n := rec.terminalCount(); n != 1 {
		t.Errorf("terminal callbacks = %d, want 1", n)
	}
}

func TestRun_EndToEndMOV(t *testing.T) {
	fs := osfilesystem.New()
	factory := moviewriter.NewFactory(moviewriter.Options{})
	s := New(factory, fs)

	opts := scenarioOptions(t)
	opts.Codec = pipeline.CodecJPEG
	opts.OutputSize = pipeline.Size{Width: 120, Height: 120}

	// Run twice on the same path; the second run must overwrite.
	for run := 0; run < 2; run++ {
		path, err := s.Run(context.Background(), scenarioImages(), opts, nil)
		if err != nil {
			t.Fatalf("run %d failed: %v", run, err)
		}
		if path != opts.LocalPath {
			t.Errorf("path = %s, want %s", path, opts.LocalPath)
		}
	}

	info, err := probe.Inspect(opts.LocalPath)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.FrameCount() != 3 {
		t.Fatalf("frame count = %d, want 3", info.FrameCount())
	}
	if info.Width != 120 || info.Height != 120 || info.Timescale != 600 {
		t.Errorf("got %dx%d @%d, want 120x120 @600", info.Width, info.Height, info.Timescale)
	}
	for k, ts := range info.Timestamps() {
		if ts.Value != int64(k)*240 {
			t.Errorf("frame %d decode time = %s, want %d/600", k, ts, k*240)
		}
	}
}
