package summarizer

import (
	"strings"
	"testing"
	"time"

	"github.com/user/imageseq/pkg/mocks"
)

func sampleSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Input:       InputInfo{ImageCount: 3, CanvasWidth: 200, CanvasHeight: 200},
		Settings: Settings{
			Format:          "mov",
			RequestedCodec:  "auto",
			Codec:           "jpeg",
			Backend:         "mp4ff",
			FallbackUsed:    true,
			ScaleMode:       "fit",
			Quality:         85,
			SecondsPerImage: 2.5,
			Width:           720,
			Height:          720,
		},
		Video: VideoInfo{
			Path:       "/tmp/out.mov",
			FrameCount: 3,
			Timescale:  600,
			Tick:       240,
			DurationMs: 1200,
			FileSize:   1024 * 1024,
		},
		Outcome: Outcome{Success: true, ElapsedMs: 321},
	}
}

func TestMarkdownFormatter_Format_Basic(t *testing.T) {
	result := NewMarkdownFormatter().Format(sampleSummary())

	checks := []string{
		"# Movie Summary",
		"Success",
		"/tmp/out.mov",
		"720x720",
		"200x200",
		"2.5 s",
		"jpeg (fallback from: auto)",
		"mp4ff",
		"240/600 s",
		"1200 ms",
		"1.00 MB",
		"321 ms",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
	if strings.Contains(result, "## Album") {
		t.Error("album section should be omitted when no album was used")
	}
}

func TestMarkdownFormatter_Format_Failure(t *testing.T) {
	s := sampleSummary()
	s.Video = VideoInfo{}
	s.Outcome = Outcome{
		ErrorCode:  "encoder_finalize",
		Error:      "could not finish | writing",
		Suggestion: "try again",
	}

	result := NewMarkdownFormatter().Format(s)

	if !strings.Contains(result, "Failed") {
		t.Error("expected failure status")
	}
	if !strings.Contains(result, "`encoder_finalize`") {
		t.Error("expected error code")
	}
	if !strings.Contains(result, `could not finish \| writing`) {
		t.Error("pipe characters in values should be escaped")
	}
	if strings.Contains(result, "## Video") {
		t.Error("video section should be omitted without frames")
	}
}

func TestMarkdownFormatter_Album(t *testing.T) {
	s := sampleSummary()
	s.Album = AlbumInfo{Name: "Trips", AssetID: "abc", Created: true}

	result := NewMarkdownFormatter().Format(s)
	for _, check := range []string{"## Album", "Trips", "abc", "Album Created"} {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
}

func TestMarkdownFormatter_WithTranslator(t *testing.T) {
	translator := func(key string) string {
		translations := map[string]string{
			"Movie Summary": "動画サマリー",
			"Result":        "結果",
			"Success":       "成功",
		}
		if v, ok := translations[key]; ok {
			return v
		}
		return key
	}

	result := NewMarkdownFormatter(WithTranslator(translator)).Format(sampleSummary())

	for _, want := range []string{"動画サマリー", "結果", "成功"} {
		if !strings.Contains(result, want) {
			t.Errorf("expected translated %q", want)
		}
	}
}

func TestMarkdownFormatter_WithVersion(t *testing.T) {
	result := NewMarkdownFormatter(WithVersion("v1.2.0")).Format(sampleSummary())

	if !strings.Contains(result, "v1.2.0") {
		t.Error("expected output to contain version 'v1.2.0'")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{1024 * 1024 * 1024, "1.00 GB"},
		{1536 * 1024 * 1024, "1.50 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := formatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(FormatFunc(func(*Summary) string { return "hello" }), fs)

	if err := w.Write("/out/summary.md", NewSummary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, ok := fs.GetFile("/out/summary.md")
	if !ok || string(data) != "hello" {
		t.Errorf("written = %q, %v", data, ok)
	}
}
