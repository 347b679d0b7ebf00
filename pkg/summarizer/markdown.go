package summarizer

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) { f.translate = fn }
}

// WithVersion adds the tool version to the footer.
func WithVersion(v string) MarkdownOption {
	return func(f *MarkdownFormatter) { f.version = v }
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{translate: func(s string) string { return s }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Movie Summary"))

	b.WriteString(f.row2Header(t("Item"), t("Value")))
	status := t("Success")
	if !s.Outcome.Success {
		status = t("Failed")
	}
	f.row(&b, t("Result"), status)
	if !s.Outcome.Success && s.Outcome.Error != "" {
		f.row(&b, t("Error"), fmt.Sprintf("%s (`%s`)", s.Outcome.Error, s.Outcome.ErrorCode))
		if s.Outcome.Suggestion != "" {
			f.row(&b, t("Suggestion"), s.Outcome.Suggestion)
		}
	}
	f.row(&b, t("Elapsed"), fmt.Sprintf("%d ms", s.Outcome.ElapsedMs))
	if s.Video.Path != "" {
		f.row(&b, t("Output"), s.Video.Path)
	}

	fmt.Fprintf(&b, "\n## %s\n\n", t("Input"))
	b.WriteString(f.row2Header(t("Item"), t("Value")))
	f.row(&b, t("Images"), fmt.Sprintf("%d", s.Input.ImageCount))
	if s.Input.CanvasWidth > 0 {
		f.row(&b, t("Canvas"), fmt.Sprintf("%dx%d", s.Input.CanvasWidth, s.Input.CanvasHeight))
	}

	fmt.Fprintf(&b, "\n## %s\n\n", t("Settings"))
	b.WriteString(f.row2Header(t("Item"), t("Value")))
	f.row(&b, t("Output Size"), fmt.Sprintf("%dx%d", s.Settings.Width, s.Settings.Height))
	f.row(&b, t("Seconds per Image"), fmt.Sprintf("%g s", s.Settings.SecondsPerImage))
	f.row(&b, t("Format"), s.Settings.Format)
	codec := s.Settings.Codec
	if codec == "" {
		codec = s.Settings.RequestedCodec
	}
	if s.Settings.FallbackUsed {
		codec = fmt.Sprintf("%s (%s: %s)", codec, t("fallback from"), s.Settings.RequestedCodec)
	}
	f.row(&b, t("Codec"), codec)
	if s.Settings.Backend != "" {
		f.row(&b, t("Backend"), s.Settings.Backend)
	}
	f.row(&b, t("Scale Mode"), s.Settings.ScaleMode)
	f.row(&b, t("Quality"), fmt.Sprintf("%d", s.Settings.Quality))

	if s.Video.FrameCount > 0 {
		fmt.Fprintf(&b, "\n## %s\n\n", t("Video"))
		b.WriteString(f.row2Header(t("Item"), t("Value")))
		f.row(&b, t("Frames"), fmt.Sprintf("%d", s.Video.FrameCount))
		if s.Video.Timescale > 0 {
			f.row(&b, t("Frame Duration"), fmt.Sprintf("%d/%d s", s.Video.Tick, s.Video.Timescale))
		}
		f.row(&b, t("Duration"), fmt.Sprintf("%d ms", s.Video.DurationMs))
		f.row(&b, t("File Size"), formatBytes(s.Video.FileSize))
	}

	if s.Album.Name != "" {
		fmt.Fprintf(&b, "\n## %s\n\n", t("Album"))
		b.WriteString(f.row2Header(t("Item"), t("Value")))
		f.row(&b, t("Album"), s.Album.Name)
		if s.Album.AssetID != "" {
			f.row(&b, t("Asset"), s.Album.AssetID)
		}
		if s.Album.Created {
			f.row(&b, t("Album Created"), t("Yes"))
		}
	}

	b.WriteString("\n---\n\n")
	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	if f.version != "" {
		footer += fmt.Sprintf(" (imageseq %s)", f.version)
	}
	b.WriteString(footer + "\n")

	return b.String()
}

func (f *MarkdownFormatter) row2Header(a, b string) string {
	return fmt.Sprintf("| %s | %s |\n|---|---|\n", a, b)
}

func (f *MarkdownFormatter) row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", label, strings.ReplaceAll(value, "|", "\\|"))
}

// formatBytes formats a byte count using binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}

var _ Formatter = (*MarkdownFormatter)(nil)
