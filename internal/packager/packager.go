// Package packager reduces a processed batch to exactly one
// deliverable file: a single item is promoted to the workspace root,
// while multiple items are bundled in to one zip archive.
package packager

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hbomb79/Snag/internal/download"
	"github.com/hbomb79/Snag/internal/download/workspace"
	"github.com/hbomb79/Snag/internal/media"
	"github.com/hbomb79/Snag/pkg/logger"
)

var log = logger.Get("Packager")

// Package turns the surviving items in to the final artifact path.
// An empty batch is unreachable through the pipeline, which fails
// first, but is still rejected here rather than delivering nothing.
func Package(items []media.Item, baseName string, ws *workspace.Workspace) (string, error) {
	switch len(items) {
	case 0:
		return "", download.NewErrorf(download.ArtifactNotFound, "packaging reached with an empty batch")
	case 1:
		return promote(items[0], ws)
	default:
		return bundle(items, baseName, ws)
	}
}

// promote relocates a lone item to the workspace root so delivery has
// a single predictable location, pruning any emptied retriever
// subdirectories it leaves behind.
func promote(item media.Item, ws *workspace.Workspace) (string, error) {
	if filepath.Dir(item.Path) == ws.Root() {
		return item.Path, nil
	}

	promoted := ws.Join(filepath.Base(item.Path))
	if err := os.Rename(item.Path, promoted); err != nil {
		return "", fmt.Errorf("could not promote '%s' to workspace root: %w", item.Path, err)
	}

	pruneEmptyDirs(filepath.Dir(item.Path), ws.Root())
	return promoted, nil
}

func bundle(items []media.Item, baseName string, ws *workspace.Workspace) (string, error) {
	archivePath := ws.Join(baseName + ".zip")
	log.Emit(logger.INFO, "Bundling %d items in to '%s'\n", len(items), archivePath)

	archive, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("could not create archive: %w", err)
	}
	defer archive.Close()

	writer := zip.NewWriter(archive)
	for _, item := range items {
		if err := addToArchive(writer, item.Path); err != nil {
			writer.Close()
			return "", fmt.Errorf("could not archive '%s': %w", item.Path, err)
		}
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("could not finalize archive: %w", err)
	}

	// Originals are superseded by the archive.
	for _, item := range items {
		os.Remove(item.Path)
		pruneEmptyDirs(filepath.Dir(item.Path), ws.Root())
	}

	return archivePath, nil
}

// addToArchive stores a file under its base filename. Source names
// are unique within a batch, so collisions are not expected;
// duplicates would simply shadow one another inside the archive.
func addToArchive(writer *zip.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	entry, err := writer.Create(filepath.Base(path))
	if err != nil {
		return err
	}

	_, err = io.Copy(entry, file)
	return err
}

// pruneEmptyDirs removes now-empty directories from dir up to (but
// never including) the workspace root. Removal stops at the first
// non-empty directory.
func pruneEmptyDirs(dir string, root string) {
	for dir != root && len(dir) > len(root) {
		if err := os.Remove(dir); err != nil {
			return
		}

		dir = filepath.Dir(dir)
	}
}
