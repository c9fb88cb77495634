package registry

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"sort"
)

// LocalSource resolves items from the compiled-in catalog. File contents are
// read from content, normally the root of a HAX workspace checkout.
type LocalSource struct {
	content fs.FS
	logger  *slog.Logger

	// catalogs overrides the compiled-in tables; used by tests.
	catalogs func(Category) map[string]catalogEntry
}

// NewLocalSource creates a source reading file contents from content.
func NewLocalSource(content fs.FS, logger *slog.Logger) *LocalSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalSource{content: content, logger: logger, catalogs: catalogFor}
}

func (s *LocalSource) String() string { return "local" }

// Lookup finds name in cat, or in every category in local fallback order
// (UI before artifacts) when cat is empty.
func (s *LocalSource) Lookup(ctx context.Context, name string, cat Category) (*Item, error) {
	cats := localOrder
	if cat != "" {
		cats = []Category{cat}
	}
	for _, c := range cats {
		entry, ok := s.catalogs(c)[name]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return s.load(name, entry)
	}
	return nil, ErrNotFound
}

// Names lists the catalog entries of a category, sorted.
func (s *LocalSource) Names(_ context.Context, cat Category) ([]string, error) {
	table := s.catalogs(cat)
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *LocalSource) load(name string, entry catalogEntry) (*Item, error) {
	item := &Item{
		Name:                 name,
		Type:                 entry.Type,
		Dependencies:         append([]string(nil), entry.Dependencies...),
		RegistryDependencies: append([]string(nil), entry.RegistryDependencies...),
		Source:               s.String(),
	}
	for _, f := range entry.Files {
		data, err := fs.ReadFile(s.content, f.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.logger.Debug("local file missing", "component", name, "path", f.Path)
			} else {
				s.logger.Warn("could not read local file", "component", name, "path", f.Path, "error", err)
			}
			continue
		}
		item.Files = append(item.Files, File{Path: f.Path, Type: f.Type, Content: string(data)})
	}
	if len(item.Files) == 0 {
		return nil, ErrNotFound
	}
	return item, nil
}
