package media

import "path/filepath"

// Kind is the broad media classification of a file, inferred
// from its extension. Retrievers produce files with unpredictable
// names but well-known extensions, so the extension is the only
// classification signal available.
type Kind int

const (
	KindUnknown Kind = iota
	KindVideo
	KindImage
	KindAudio
)

func (kind Kind) String() string {
	return []string{"unknown", "video", "image", "audio"}[kind]
}

// Item is a single retrieved media file inside a request workspace.
type Item struct {
	Path string
	Kind Kind
}

// NewItem constructs an Item for the given path, inferring its kind.
func NewItem(path string) Item {
	return Item{Path: path, Kind: KindOf(path)}
}

// KindOf infers the media kind of a file from its extension.
func KindOf(path string) Kind {
	switch filepath.Ext(path) {
	case ".mp4", ".mkv", ".webm", ".mov", ".avi":
		return KindVideo
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
		return KindImage
	case ".mp3", ".m4a", ".aac", ".opus", ".ogg", ".wav", ".flac":
		return KindAudio
	default:
		return KindUnknown
	}
}

// Paths flattens a slice of items in to their file paths, preserving order.
func Paths(items []Item) []string {
	paths := make([]string, 0, len(items))
	for _, item := range items {
		paths = append(paths, item.Path)
	}

	return paths
}
