package ytdlp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hbomb79/Snag/internal/download"
	"github.com/hbomb79/Snag/internal/download/workspace"
	"github.com/hbomb79/Snag/pkg/logger"
)

// report is the subset of yt-dlp's --print-json output needed to
// locate the produced file.
type report struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	RequestedDownloads []struct {
		Filepath string `json:"filepath"`
	} `json:"requested_downloads"`
}

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// locateArtifact resolves the file yt-dlp produced. The tool's naming
// is not fully predictable (titles are sanitized, containers can
// change during merging), so resolution runs a strict fallback chain:
//  1. the filepaths declared in the structured report,
//  2. the sanitized title/ID with the expected extension,
//  3. a directory scan filtered by expected extensions.
func (retriever *Retriever) locateArtifact(platform string, stdout []byte, ws *workspace.Workspace, format download.Format) (string, error) {
	extensions := expectedExtensions(format)

	var parsed report
	if err := json.Unmarshal(stdout, &parsed); err != nil {
		log.Emit(logger.WARNING, "%s: yt-dlp report could not be parsed (%v), falling back to workspace scan\n", platform, err)
	} else {
		if path := artifactFromReport(parsed, extensions); path != "" {
			return path, nil
		}

		log.Emit(logger.DEBUG, "%s: report contained no usable filepath, trying sanitized name\n", platform)
		if path := artifactFromSanitizedName(parsed, ws, extensions[0]); path != "" {
			return path, nil
		}
	}

	log.Emit(logger.WARNING, "%s: falling back to extension scan of workspace\n", platform)
	if path := artifactFromScan(ws, extensions); path != "" {
		return path, nil
	}

	return "", download.NewErrorf(download.ArtifactNotFound, "no %v artifact found in workspace after %s download", extensions, platform)
}

// artifactFromReport prefers a declared filepath whose extension
// matches the requested format, then any declared filepath that
// exists on disk.
func artifactFromReport(parsed report, extensions []string) string {
	var firstExisting string
	for _, requested := range parsed.RequestedDownloads {
		path := requested.Filepath
		if path == "" || !fileExists(path) {
			continue
		}

		if hasAnyExtension(path, extensions) {
			return path
		}
		if firstExisting == "" {
			firstExisting = path
		}
	}

	return firstExisting
}

func artifactFromSanitizedName(parsed report, ws *workspace.Workspace, extension string) string {
	titleOrID := parsed.Title
	if titleOrID == "" {
		titleOrID = parsed.ID
	}
	if titleOrID == "" {
		return ""
	}

	sanitized := unsafeFilenameChars.ReplaceAllString(titleOrID, "_")
	if len(sanitized) > 100 {
		sanitized = sanitized[:100]
	}

	candidate := ws.Join(sanitized + extension)
	if fileExists(candidate) {
		return candidate
	}

	return ""
}

func artifactFromScan(ws *workspace.Workspace, extensions []string) string {
	entries, err := os.ReadDir(ws.Root())
	if err != nil {
		return ""
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if hasAnyExtension(entry.Name(), extensions) {
			return ws.Join(entry.Name())
		}
	}

	return ""
}

// expectedExtensions lists output extensions in preference order for
// the requested format.
func expectedExtensions(format download.Format) []string {
	if format == download.FormatAudio {
		return []string{".mp3"}
	}

	return []string{".mp4", ".mkv", ".webm"}
}

func hasAnyExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range extensions {
		if ext == candidate {
			return true
		}
	}

	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
