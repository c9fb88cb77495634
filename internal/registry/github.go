package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// fileFetchLimit bounds concurrent file downloads for a single item.
const fileFetchLimit = 4

// GitHubSource resolves items from category metadata documents on a GitHub branch.
type GitHubSource struct {
	client *Client
	spec   GitHubSpec
	logger *slog.Logger

	mu       sync.Mutex
	reported map[Category]bool
}

// NewGitHubSource creates a source reading spec through client.
func NewGitHubSource(client *Client, spec GitHubSpec, logger *slog.Logger) *GitHubSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &GitHubSource{
		client:   client,
		spec:     spec,
		logger:   logger,
		reported: make(map[Category]bool),
	}
}

func (s *GitHubSource) String() string {
	return s.client.Attribution(s.spec)
}

// Lookup finds name in cat, or in every category in remote fallback order when cat is empty.
func (s *GitHubSource) Lookup(ctx context.Context, name string, cat Category) (*Item, error) {
	cats := remoteOrder
	if cat != "" {
		cats = []Category{cat}
	}

	for _, c := range cats {
		item, err := s.lookupIn(ctx, name, c)
		if err == nil {
			return item, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}
	return nil, ErrNotFound
}

// Names lists the item names of a category, sorted.
func (s *GitHubSource) Names(ctx context.Context, cat Category) ([]string, error) {
	md, err := s.client.FetchMetadata(ctx, s.spec, cat)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(md))
	for name := range md {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *GitHubSource) lookupIn(ctx context.Context, name string, cat Category) (*Item, error) {
	md, err := s.client.FetchMetadata(ctx, s.spec, cat)
	if err != nil {
		s.reportMetadataFailure(cat, err)
		return nil, ErrNotFound
	}

	entry, ok := md[name]
	if !ok {
		s.logger.Debug("component not in metadata", "component", name, "category", string(cat))
		return nil, ErrNotFound
	}

	return s.fetchItem(ctx, name, cat, entry)
}

// reportMetadataFailure logs a metadata failure once per category for the lifetime of the source.
func (s *GitHubSource) reportMetadataFailure(cat Category, err error) {
	s.mu.Lock()
	seen := s.reported[cat]
	s.reported[cat] = true
	s.mu.Unlock()
	if seen {
		return
	}
	logFetchFailure(s.logger, "could not load "+cat.MetadataFile()+" from "+s.String(), err)
}

// fetchItem downloads every file listed in entry. Files that fail are dropped;
// the item resolves only if at least one file was fetched.
func (s *GitHubSource) fetchItem(ctx context.Context, name string, cat Category, entry MetadataEntry) (*Item, error) {
	item := &Item{
		Name:                 name,
		Type:                 entry.Type,
		Dependencies:         entry.Dependencies,
		RegistryDependencies: entry.RegistryDependencies,
		Source:               s.String(),
	}
	if !item.Type.Valid() {
		item.Type = categoryItemType(cat)
	}

	fetched := make([]*File, len(entry.Files))
	var g errgroup.Group
	g.SetLimit(fileFetchLimit)
	for i, f := range entry.Files {
		i, f := i, f
		g.Go(func() error {
			filePath := f.ResolvedPath(cat, name)
			data, err := s.client.FetchFile(ctx, s.spec, filePath)
			if err != nil {
				logFileFailure(s.logger, s.client.FileURL(s.spec, filePath), err)
				return nil
			}
			fetched[i] = &File{Path: filePath, Type: f.Type, Content: string(data)}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, f := range fetched {
		if f != nil {
			item.Files = append(item.Files, *f)
		}
	}
	if len(item.Files) == 0 {
		s.logger.Debug("no files could be fetched", "component", name, "category", string(cat))
		return nil, ErrNotFound
	}
	return item, nil
}

func categoryItemType(cat Category) ItemType {
	switch cat {
	case CategoryArtifacts:
		return TypeArtifacts
	case CategoryComposer:
		return TypeComposer
	case CategoryAdapter:
		return TypeAdapter
	default:
		return TypeUI
	}
}
