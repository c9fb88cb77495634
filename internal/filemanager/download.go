package filemanager

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/outshift-open/hax-cli/internal/registry"
)

// validatePathComponent rejects path components that could escape the intended directory.
func validatePathComponent(name, label string) error {
	if name == "" {
		return fmt.Errorf("empty %s", label)
	}
	cleaned := filepath.Clean(name)
	if cleaned == "." || cleaned != name || strings.Contains(cleaned, "..") || filepath.IsAbs(cleaned) {
		return fmt.Errorf("invalid %s: %q", label, name)
	}
	return nil
}

// validateInsideDir checks that resolved is a child of base after cleaning.
func validateInsideDir(base, resolved string) error {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return err
	}
	absResolved, err := filepath.Abs(resolved)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(absResolved, absBase+string(filepath.Separator)) && absResolved != absBase {
		return fmt.Errorf("path %q escapes base directory %q", resolved, base)
	}
	return nil
}

// Layout holds the absolute directories items are installed into.
type Layout struct {
	ProjectDir   string
	ArtifactsDir string
	ComposersDir string
	AdaptersDir  string
	FrontendDir  string
	BackendDir   string
}

// Root returns the directory files of an item of type t are written under.
func (l Layout) Root(t registry.ItemType) string {
	switch t {
	case registry.TypeArtifacts:
		return l.ArtifactsDir
	case registry.TypeComposer:
		return l.ComposersDir
	case registry.TypeAdapter:
		return l.AdaptersDir
	case registry.TypeLib:
		return filepath.Join(l.FrontendDir, "lib")
	default:
		return filepath.Join(l.FrontendDir, "components")
	}
}

// DestPath maps a registry file of item to its location on disk.
//
//	hax/artifacts/<name>/<rel>  ->  <artifacts>/<name>/<rel>
//	hax/composer/<name>/<rel>   ->  <composers>/<name>/<rel>
//	hax/adapter/<rel>           ->  <adapters>/<rel>
//	hax/components/<rel>        ->  <frontend>/components/<rel>
//	hax/lib/<rel>               ->  <frontend>/lib/<rel>
//
// Paths that match none of these keep only their base name under the item's root.
func (l Layout) DestPath(item *registry.Item, f registry.File) (string, error) {
	if err := validatePathComponent(item.Name, "component name"); err != nil {
		return "", err
	}
	if strings.ContainsAny(item.Name, `/\`) {
		return "", fmt.Errorf("invalid component name: %q", item.Name)
	}

	rel := relativePath(item, f.Path)
	if err := validatePathComponent(filepath.FromSlash(rel), "file path"); err != nil {
		return "", err
	}

	root := l.Root(item.Type)
	var dest string
	switch item.Type {
	case registry.TypeArtifacts, registry.TypeComposer:
		dest = filepath.Join(root, item.Name, filepath.FromSlash(rel))
	default:
		dest = filepath.Join(root, filepath.FromSlash(rel))
	}
	if err := validateInsideDir(root, dest); err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}
	return dest, nil
}

func relativePath(item *registry.Item, p string) string {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")

	var prefixes []string
	switch item.Type {
	case registry.TypeArtifacts:
		prefixes = []string{"hax/artifacts/" + item.Name + "/", "artifacts/" + item.Name + "/"}
	case registry.TypeComposer:
		prefixes = []string{"hax/composer/" + item.Name + "/", "composers/" + item.Name + "/"}
	case registry.TypeAdapter:
		prefixes = []string{"hax/adapter/", "adapter/"}
	case registry.TypeLib:
		prefixes = []string{"hax/lib/", "lib/"}
	default:
		prefixes = []string{"hax/components/", "components/", "ui/"}
	}
	for _, prefix := range prefixes {
		if rel, ok := strings.CutPrefix(p, prefix); ok && rel != "" {
			if prefix == "ui/" {
				return "ui/" + rel
			}
			return rel
		}
	}
	return path.Base(p)
}

// Status describes what WriteFile did.
type Status string

const (
	StatusCreated   Status = "created"
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
)

// WriteFile writes data to dest atomically, creating parent directories.
// Existing files are overwritten; identical content is left alone.
func WriteFile(dest string, data []byte) (Status, error) {
	status := StatusCreated
	same, err := matchesFile(dest, data)
	switch {
	case err == nil:
		if same {
			return StatusUnchanged, nil
		}
		status = StatusUpdated
	case !errors.Is(err, fs.ErrNotExist):
		return StatusFailed, fmt.Errorf("reading %s: %w", dest, err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return StatusFailed, fmt.Errorf("creating directory for %s: %w", dest, err)
	}

	tmpPath := dest + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return StatusFailed, fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return StatusFailed, fmt.Errorf("saving %s: %w", dest, err)
	}
	return status, nil
}

// FileResult is the outcome of writing one item file.
type FileResult struct {
	Source string // registry path
	Dest   string // absolute destination, empty if mapping failed
	Status Status
	Size   int
	Err    error
}

// Manager writes resolved items into a project.
type Manager struct {
	layout Layout
}

// NewManager creates a new file manager.
func NewManager(layout Layout) *Manager {
	return &Manager{layout: layout}
}

// Layout returns the directories the manager writes into.
func (m *Manager) Layout() Layout {
	return m.layout
}

// ComponentDir returns the directory owned by an installed item.
// Adapters share one directory.
func (m *Manager) ComponentDir(t registry.ItemType, name string) (string, error) {
	if err := validatePathComponent(name, "component name"); err != nil {
		return "", err
	}
	root := m.layout.Root(t)
	if t == registry.TypeAdapter {
		return root, nil
	}
	dir := filepath.Join(root, name)
	if err := validateInsideDir(root, dir); err != nil {
		return "", err
	}
	if filepath.Clean(dir) == filepath.Clean(root) {
		return "", fmt.Errorf("invalid component name: %q", name)
	}
	return dir, nil
}

// WriteItem cleans and writes every file of item. A failing file does not stop the others.
func (m *Manager) WriteItem(item *registry.Item) []FileResult {
	results := make([]FileResult, 0, len(item.Files))
	for _, f := range item.Files {
		res := FileResult{Source: f.Path}

		dest, err := m.layout.DestPath(item, f)
		if err != nil {
			res.Status, res.Err = StatusFailed, err
			results = append(results, res)
			continue
		}
		res.Dest = dest

		data := []byte(CleanContent(item.Type, f.Content))
		res.Size = len(data)
		res.Status, res.Err = WriteFile(dest, data)
		results = append(results, res)
	}
	return results
}

// WriteIfAbsent creates dest with data unless it already exists.
func WriteIfAbsent(dest string, data []byte) (bool, error) {
	if _, err := os.Stat(dest); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return false, fmt.Errorf("creating directory for %s: %w", dest, err)
	}
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return false, fmt.Errorf("writing %s: %w", dest, err)
	}
	return true, nil
}
