package download

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Deliverable is the single artifact streamed back to the caller. It
// retains ownership of the request workspace via the release hook;
// the delivery layer must call Release once the response is written.
type Deliverable struct {
	Path        string
	Filename    string
	ContentType string

	release func()
}

// Release tears down the workspace backing this deliverable. Safe to
// call more than once.
func (deliverable *Deliverable) Release() {
	if deliverable.release != nil {
		deliverable.release()
		deliverable.release = nil
	}
}

// NewDeliverable wraps the final artifact path, resolving its content
// type and attachment filename.
func NewDeliverable(path string, release func()) *Deliverable {
	return &Deliverable{
		Path:        path,
		Filename:    filepath.Base(path),
		ContentType: ContentTypeFor(path),
		release:     release,
	}
}

// ContentTypeFor resolves the content type to deliver a file with.
// Well-known output extensions are mapped explicitly, ahead of any
// sniffing, so that archives and transcoded audio are always labelled
// predictably; anything else falls through to content detection and
// finally a generic octet-stream.
func ContentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return "application/zip"
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	}

	if detected, err := mimetype.DetectFile(path); err == nil {
		return detected.String()
	}

	return "application/octet-stream"
}
