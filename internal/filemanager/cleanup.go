package filemanager

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/outshift-open/hax-cli/internal/registry"
)

// RemoveComponent deletes the directory owned by an installed item.
// The directory must lie within one of the layout's install roots.
// A directory that is already gone is not an error.
func (m *Manager) RemoveComponent(dir string) error {
	if err := m.validateRemovable(dir); err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing %s: %w", dir, err)
	}
	return nil
}

func (m *Manager) validateRemovable(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if project, err := filepath.Abs(m.layout.ProjectDir); err == nil && project == abs {
		return fmt.Errorf("refusing to remove the project directory")
	}
	l := m.layout
	// The adapters root is itself the shared adapter directory.
	for _, root := range []string{l.ArtifactsDir, l.ComposersDir, l.FrontendDir, l.Root(registry.TypeUI), l.Root(registry.TypeLib)} {
		if r, err := filepath.Abs(root); err == nil && root != "" && r == abs {
			return fmt.Errorf("refusing to remove install root %q", dir)
		}
	}
	for _, root := range []string{l.ArtifactsDir, l.ComposersDir, l.AdaptersDir, l.FrontendDir} {
		if root != "" && validateInsideDir(root, dir) == nil {
			return nil
		}
	}
	return fmt.Errorf("refusing to remove %q outside the install directories", dir)
}
