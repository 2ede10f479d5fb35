// Package workspace manages the per-request scratch directories that
// own every file produced while servicing a download. A workspace is
// exclusively owned by one request and must be released on every exit
// path; releasing is idempotent and tolerates paths already removed
// externally.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hbomb79/Snag/pkg/logger"
)

var log = logger.Get("Workspace")

// Manager allocates workspaces beneath a common root directory.
type Manager struct {
	root string
}

// NewManager returns a Manager rooted at the given directory. An
// empty root falls back to the OS temporary directory.
func NewManager(root string) *Manager {
	if root == "" {
		root = os.TempDir()
	}

	return &Manager{root: root}
}

// Allocate creates a uniquely-named scratch directory. The random
// suffix guarantees concurrent requests never collide.
func (manager *Manager) Allocate() (*Workspace, error) {
	if err := os.MkdirAll(manager.root, 0o755); err != nil {
		return nil, fmt.Errorf("workspace root '%s' could not be created: %w", manager.root, err)
	}

	dir := filepath.Join(manager.root, fmt.Sprintf("snag-%s", uuid.New()))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("workspace '%s' could not be created: %w", dir, err)
	}

	log.Emit(logger.NEW, "Allocated workspace %s\n", dir)
	return &Workspace{root: dir}, nil
}

// Workspace is one request's exclusively-owned scratch directory.
type Workspace struct {
	root string
}

func (workspace *Workspace) Root() string { return workspace.root }

// Join resolves a path inside the workspace.
func (workspace *Workspace) Join(parts ...string) string {
	return filepath.Join(append([]string{workspace.root}, parts...)...)
}

// Release recursively removes the workspace. Errors are swallowed:
// a missing directory simply means cleanup already happened, and a
// partial removal cannot be usefully reported at this point anyway.
func (workspace *Workspace) Release() {
	if err := os.RemoveAll(workspace.root); err != nil {
		log.Emit(logger.WARNING, "Failed to remove workspace %s: %v\n", workspace.root, err)
		return
	}

	log.Emit(logger.REMOVE, "Released workspace %s\n", workspace.root)
}
