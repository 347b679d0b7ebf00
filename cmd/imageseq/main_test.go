package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
	"github.com/user/imageseq/pkg/probe"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 90, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestCreateCommand(t *testing.T) {
	dir := t.TempDir()
	images := filepath.Join(dir, "images")
	if err := os.Mkdir(images, 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(images, "01.png"), 100, 100)
	writePNG(t, filepath.Join(images, "02.png"), 200, 50)
	writePNG(t, filepath.Join(images, "03.png"), 50, 200)

	out := filepath.Join(dir, "out.mov")
	summary := filepath.Join(dir, "summary.md")
	metricsFile := filepath.Join(dir, "imageseq.prom")
	library := filepath.Join(dir, "library")

	// Flags must come before arguments in urfave/cli.
	args := []string{
		"imageseq", "create",
		"-o", out,
		"-W", "64", "-H", "64",
		"-s", "2.5",
		"--codec", "jpeg",
		"--summary", summary,
		"--metrics", metricsFile,
		"--album", "Trips",
		"--library", library,
		"-Q",
		images,
	}
	if err := newApp().Run(args); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	info, err := probe.Inspect(out)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.FrameCount() != 3 || info.Width != 64 || info.Timescale != 600 {
		t.Errorf("unexpected movie: %d frames, %dx%d @%d", info.FrameCount(), info.Width, info.Height, info.Timescale)
	}

	md, err := os.ReadFile(summary)
	if err != nil {
		t.Fatalf("summary not written: %v", err)
	}
	for _, want := range []string{"240/600 s", "Trips", "mp4ff"} {
		if !strings.Contains(string(md), want) {
			t.Errorf("summary missing %q:\n%s", want, md)
		}
	}

	prom, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("metrics not written: %v", err)
	}
	if !strings.Contains(string(prom), "imageseq_frames_appended_total 3") {
		t.Errorf("metrics missing frame count:\n%s", prom)
	}

	if _, err := os.Stat(filepath.Join(library, "library.yaml")); err != nil {
		t.Errorf("library manifest not written: %v", err)
	}
}

func TestProbeCommand(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 32, 32)
	out := filepath.Join(dir, "out.avi")

	if err := newApp().Run([]string{"imageseq", "create", "-o", out, "-f", "avi", "-W", "32", "-H", "32", "-s", "2.5", "-Q", filepath.Join(dir, "a.png")}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := newApp().Run([]string{"imageseq", "probe", out}); err != nil {
		t.Errorf("probe failed: %v", err)
	}

	// One image held for 240/600 s is two frames at 5 fps.
	info, err := probe.Inspect(out)
	if err != nil {
		t.Fatal(err)
	}
	if info.FrameCount() != 2 || info.Timescale != 5 {
		t.Errorf("avi has %d frames @%d, want 2 @5", info.FrameCount(), info.Timescale)
	}
}

func TestFormatFlagMentionsAVIRepetition(t *testing.T) {
	for _, cmd := range newApp().Commands {
		if cmd.Name != "create" {
			continue
		}
		for _, f := range cmd.Flags {
			sf, ok := f.(*cli.StringFlag)
			if !ok || sf.Name != "format" {
				continue
			}
			if !strings.Contains(sf.Usage, "repeats frames") && !strings.Contains(sf.Usage, "繰り返") {
				t.Errorf("format usage %q does not mention frame repetition", sf.Usage)
			}
			return
		}
	}
	t.Fatal("create --format flag not found")
}
