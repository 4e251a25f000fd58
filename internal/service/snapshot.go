package service

import (
	"go.klb.dev/clipnext/internal/clip"
)

// SnapshotOptions controls Snapshot.
type SnapshotOptions struct {
	// ImageAutoSave caches the clipboard image and includes it. Without it
	// images are skipped, since decoding them is comparatively expensive.
	ImageAutoSave bool `json:"imageAutoSave"`
	// FilePath overrides the image cache directory.
	FilePath string `json:"filePath"`
}

// Snapshot is every representation present on the clipboard at one instant.
type Snapshot struct {
	Text  *string    `json:"text,omitempty"`
	RTF   *string    `json:"rtf,omitempty"`
	HTML  *string    `json:"html,omitempty"`
	Image *ReadImage `json:"image,omitempty"`
	Files *ReadFiles `json:"files,omitempty"`
}

// Snapshot reads all formats in a single store call so the result is never
// a mix of two clipboard states.
func (s *Service) Snapshot(opts SnapshotOptions) (Snapshot, error) {
	formats := []clip.Format{clip.FormatText, clip.FormatRTF, clip.FormatHTML, clip.FormatFiles}
	if opts.ImageAutoSave {
		formats = append(formats, clip.FormatImage)
	}
	values, err := s.store.Contents(formats...)
	if err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	for _, v := range values {
		switch c := v.(type) {
		case clip.Text:
			str := string(c)
			snap.Text = &str
		case clip.RTF:
			str := string(c)
			snap.RTF = &str
		case clip.HTML:
			str := string(c)
			snap.HTML = &str
		case clip.FileList:
			files := fileSizes(c)
			snap.Files = &files
		case clip.Image:
			img, err := s.saveImage(c, opts.FilePath)
			if err != nil {
				return Snapshot{}, err
			}
			snap.Image = &img
		}
	}
	return snap, nil
}
