package service

import (
	"context"
	"log/slog"

	"go.klb.dev/clipnext/internal/clip"
)

// logContents logs a clipboard event at INFO (formats) and DEBUG (text
// preview up to 120 chars, or size for images and file lists).
func logContents(event string, values []clip.Content) {
	formats := make([]string, len(values))
	for i, v := range values {
		formats[i] = v.Format().String()
	}
	slog.Info(event, "formats", formats)

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, v := range values {
		switch c := v.(type) {
		case clip.Text:
			slog.Debug("clipboard item", "format", "text", "preview", preview(string(c)))
		case clip.RTF:
			slog.Debug("clipboard item", "format", "rtf", "preview", preview(string(c)))
		case clip.HTML:
			slog.Debug("clipboard item", "format", "html", "preview", preview(string(c)))
		case clip.Image:
			slog.Debug("clipboard item", "format", "image", "width", c.Width, "height", c.Height, "size_bytes", len(c.Pix))
		case clip.FileList:
			slog.Debug("clipboard item", "format", "files", "count", len(c))
		}
	}
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > 120 {
		return string(r[:120]) + "…"
	}
	return s
}
