package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
)

// Source looks up single items by name.
type Source interface {
	fmt.Stringer
	// Lookup returns ErrNotFound when the source does not know name in cat.
	// An empty cat searches every category in the source's fallback order.
	Lookup(ctx context.Context, name string, cat Category) (*Item, error)
	// Names lists the items of one category.
	Names(ctx context.Context, cat Category) ([]string, error)
}

// Resolver turns source specs into sources and resolves items against them.
// Transport and parse failures are logged here and never returned to callers.
type Resolver struct {
	client  *Client
	content fs.FS
	named   map[string]SourceSpec
	logger  *slog.Logger

	mu      sync.Mutex
	sources map[SourceSpec]Source
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLocalContent sets the filesystem local items read their files from.
func WithLocalContent(content fs.FS) ResolverOption {
	return func(r *Resolver) { r.content = content }
}

// WithNamedSources registers the specs NamedSpec refers to.
func WithNamedSources(named map[string]SourceSpec) ResolverOption {
	return func(r *Resolver) { r.named = named }
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver using client for remote sources.
func NewResolver(client *Client, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:  client,
		content: os.DirFS("."),
		logger:  slog.Default(),
		sources: make(map[SourceSpec]Source),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Source returns the source for spec. Sources are reused per spec so that
// per-source state, such as already reported failures, lasts for the resolver's lifetime.
func (r *Resolver) Source(spec SourceSpec) (Source, error) {
	if named, ok := spec.(NamedSpec); ok {
		target, ok := r.named[named.Name]
		if !ok {
			return nil, fmt.Errorf("%w: no registry named %q", ErrUnsupportedSource, named.Name)
		}
		if _, nested := target.(NamedSpec); nested {
			return nil, fmt.Errorf("%w: registry %q refers to another registry", ErrUnsupportedSource, named.Name)
		}
		spec = target
	}

	key := spec
	r.mu.Lock()
	defer r.mu.Unlock()
	if src, ok := r.sources[key]; ok {
		return src, nil
	}

	var src Source
	switch s := spec.(type) {
	case LocalSpec:
		src = NewLocalSource(r.content, r.logger)
	case GitHubSpec:
		src = NewGitHubSource(r.client, s, r.logger)
	case CDNSpec:
		src = NewCDNSource(r.client, s, r.logger)
	case UnsupportedSpec:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, s.Raw)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedSource, spec)
	}
	r.sources[key] = src
	return src, nil
}

// Resolve looks up name in cat of the source described by spec. Every failure
// other than context cancellation is reported as ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, name string, spec SourceSpec, cat Category) (*Item, error) {
	src, err := r.Source(spec)
	if err != nil {
		r.logger.Error("unsupported registry source", "source", spec.String(), "component", name, "error", err)
		return nil, ErrNotFound
	}

	item, err := src.Lookup(ctx, name, cat)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, ErrNotFound
	}
	return item, nil
}

// ResolveString resolves name against a source selector string in any category.
func (r *Resolver) ResolveString(ctx context.Context, name, source string) (*Item, error) {
	return r.Resolve(ctx, name, ParseSourceLenient(source), "")
}

// Chain builds a chain over specs, consulted in order.
func (r *Resolver) Chain(specs ...SourceSpec) *Chain {
	seen := make(map[string]bool, len(specs))
	var unique []SourceSpec
	for _, s := range specs {
		if s == nil || seen[s.String()] {
			continue
		}
		seen[s.String()] = true
		unique = append(unique, s)
	}
	return &Chain{resolver: r, specs: unique}
}

// Chain resolves a name across an ordered list of sources. The first hit wins.
type Chain struct {
	resolver *Resolver
	specs    []SourceSpec

	// Category restricts lookups; empty searches every category.
	Category Category
}

// Specs returns the sources the chain consults, in order.
func (c *Chain) Specs() []SourceSpec {
	return append([]SourceSpec(nil), c.specs...)
}

// Resolve returns the first item named name found in the chain, or ErrNotFound.
func (c *Chain) Resolve(ctx context.Context, name string) (*Item, error) {
	for _, spec := range c.specs {
		item, err := c.resolver.Resolve(ctx, name, spec, c.Category)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// logFetchFailure logs a metadata or item fetch failure at a severity matching its cause.
func logFetchFailure(logger *slog.Logger, msg string, err error) {
	var httpErr *HTTPError
	var parseErr *ParseError
	switch {
	case errors.As(err, &httpErr) && httpErr.IsNotFound():
		logger.Debug(msg, "error", err)
	case errors.As(err, &httpErr) && httpErr.IsAuth():
		logger.Warn(msg+"; check GITHUB_TOKEN or the registry token", "error", err)
	case errors.As(err, &parseErr):
		logger.Error(msg+": invalid JSON", "error", err)
	default:
		logger.Error(msg, "error", err)
	}
}

// logFileFailure logs a dropped file. Only credential problems are raised above debug.
func logFileFailure(logger *slog.Logger, fileURL string, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.IsAuth() {
		logger.Warn("file fetch denied; check GITHUB_TOKEN", "url", fileURL, "error", err)
		return
	}
	logger.Debug("skipping file", "url", fileURL, "error", err)
}
